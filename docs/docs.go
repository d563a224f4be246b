// Package docs registra la especificación OpenAPI de la API en el registro de swag.
package docs

import (
	_ "embed"

	"github.com/swaggo/swag"
)

//go:embed swagger.json
var docTemplate string

// SwaggerInfo metadatos de la especificación.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Custodia API",
	Description:      "Custodia de stock y liquidación de ventas por turno para bares.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// Read devuelve el documento registrado.
func Read() (string, error) {
	return swag.ReadDoc(SwaggerInfo.InstanceName())
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bar es el tenant: todo Movement/Sale/Day/Shift/Event pertenece a exactamente un bar.
type Bar struct {
	ID        string
	Name      string
	Timezone  string
	CreatedAt time.Time
}

// Product representa un artículo de stock físico del bar.
type Product struct {
	ID        string
	BarID     string
	SKU       string // código único por bar
	Name      string
	Unit      string          // botella, lata, unidad...
	Price     decimal.Decimal // precio de venta por defecto
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

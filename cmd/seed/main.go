// seed crea un bar con su owner y, opcionalmente, el catálogo de productos desde un CSV.
//
// Uso: go run ./cmd/seed -bar "Bar Central" -owner-name "Ana" -owner-phone 3001234567 -owner-password secreto [-products productos.csv] [-latin1]
//
// El CSV lleva encabezado sku,name,unit,price. Exportaciones de hojas de cálculo en Windows suelen
// venir en Latin-1: usar -latin1 para decodificarlas.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/custodia-api/internal/domain/entity"
	"github.com/jhoicas/custodia-api/internal/domain/repository"
	"github.com/jhoicas/custodia-api/internal/infrastructure/postgres"
	"github.com/jhoicas/custodia-api/pkg/config"
	"github.com/jhoicas/custodia-api/pkg/logger"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

func main() {
	barName := flag.String("bar", "", "nombre del bar")
	timezone := flag.String("timezone", "America/Bogota", "zona horaria del bar")
	ownerName := flag.String("owner-name", "", "nombre del owner")
	ownerPhone := flag.String("owner-phone", "", "teléfono del owner (login)")
	ownerPassword := flag.String("owner-password", "", "password o PIN del owner")
	productsPath := flag.String("products", "", "CSV de productos (sku,name,unit,price)")
	latin1 := flag.Bool("latin1", false, "el CSV viene en ISO-8859-1")
	flag.Parse()

	if *barName == "" || *ownerName == "" || *ownerPhone == "" || len(*ownerPassword) < 6 {
		fmt.Fprintln(os.Stderr, "bar, owner-name, owner-phone y owner-password (mín. 6) son obligatorios")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})

	var products []*entity.Product
	if *productsPath != "" {
		products, err = readProducts(*productsPath, *latin1)
		if err != nil {
			log.Fatal().Err(err).Str("path", *productsPath).Msg("leer productos")
		}
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if err := postgres.Migrate(pool, log); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*ownerPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal().Err(err).Msg("hash de password")
	}
	now := time.Now().UTC()
	bar := &entity.Bar{ID: uuid.New().String(), Name: *barName, Timezone: *timezone, CreatedAt: now}
	owner := &entity.User{
		ID:           uuid.New().String(),
		BarID:        bar.ID,
		Name:         *ownerName,
		Phone:        *ownerPhone,
		PasswordHash: string(hash),
		Role:         entity.RoleOwner,
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("iniciar transacción")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	bars := postgres.NewBarRepository(tx)
	if existing, err := bars.GetByName(ctx, bar.Name); err != nil {
		log.Fatal().Err(err).Msg("buscar bar")
	} else if existing != nil {
		log.Fatal().Str("bar_id", existing.ID).Msg("ya existe un bar con ese nombre")
	}
	if err := bars.Create(ctx, bar); err != nil {
		log.Fatal().Err(err).Msg("crear bar")
	}
	repos := postgres.NewRepos(tx)
	if err := repos.Users.Create(ctx, owner); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			log.Fatal().Str("phone", owner.Phone).Msg("el teléfono ya está registrado")
		}
		log.Fatal().Err(err).Msg("crear owner")
	}
	for _, p := range products {
		p.BarID = bar.ID
		if err := repos.Products.Create(ctx, p); err != nil {
			log.Fatal().Err(err).Str("sku", p.SKU).Msg("crear producto")
		}
	}
	if err := tx.Commit(ctx); err != nil {
		log.Fatal().Err(err).Msg("commit")
	}

	log.Info().
		Str("bar_id", bar.ID).
		Str("owner_id", owner.ID).
		Int("products", len(products)).
		Msg("seed completado")
}

// readProducts lee sku,name,unit,price; la primera fila es encabezado.
func readProducts(path string, latin1 bool) ([]*entity.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if latin1 {
		r = transform.NewReader(f, charmap.ISO8859_1.NewDecoder())
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 4
	cr.TrimLeadingSpace = true

	now := time.Now().UTC()
	seen := make(map[string]bool)
	var out []*entity.Product
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if line == 1 {
			continue
		}
		sku := strings.TrimSpace(rec[0])
		if sku == "" || seen[sku] {
			return nil, fmt.Errorf("línea %d: sku vacío o repetido %q", line, sku)
		}
		seen[sku] = true
		price, err := decimal.NewFromString(strings.TrimSpace(rec[3]))
		if err != nil || price.IsNegative() {
			return nil, fmt.Errorf("línea %d: precio inválido %q", line, rec[3])
		}
		unit := strings.TrimSpace(rec[2])
		if unit == "" {
			unit = "unidad"
		}
		out = append(out, &entity.Product{
			ID:        uuid.New().String(),
			SKU:       sku,
			Name:      strings.TrimSpace(rec[1]),
			Unit:      unit,
			Price:     price,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return out, nil
}

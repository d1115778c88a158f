// Package graphql exposes a read-only GraphQL view of the inventory.
package graphql

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/graphql-go/graphql"

	"github.com/shashiranjanraj/rincon/app/models"
	"github.com/shashiranjanraj/rincon/app/repositories"
	pkggraphql "github.com/shashiranjanraj/rincon/pkg/graphql"
)

// Lines resolves the nested detalles of sales and purchases.
type Lines interface {
	LinesOfSale(ctx context.Context, id uint) ([]models.SaleLine, error)
	LinesOfPurchase(ctx context.Context, id uint) ([]models.PurchaseLine, error)
}

// Sources are the repositories the schema reads from.
type Sources struct {
	Products      repositories.Repository[models.Product]
	Suppliers     repositories.Repository[models.Supplier]
	Purchases     repositories.Repository[models.Purchase]
	Sales         repositories.Repository[models.Sale]
	PurchaseLines repositories.Repository[models.PurchaseLine]
	SaleLines     repositories.Repository[models.SaleLine]
	Lines         Lines
}

// Schema builds the query-only schema.
func Schema(src Sources) (graphql.Schema, error) {
	product := object("Producto", graphql.Fields{
		"id":           {Type: graphql.Int},
		"nombre":       {Type: graphql.String},
		"descripcion":  {Type: graphql.String},
		"precio":       {Type: graphql.Float},
		"stock":        {Type: graphql.Int},
		"categoria":    {Type: graphql.String},
		"proveedor_id": {Type: graphql.Int},
	})
	supplier := object("Proveedor", graphql.Fields{
		"id":        {Type: graphql.Int},
		"nombre":    {Type: graphql.String},
		"contacto":  {Type: graphql.String},
		"telefono":  {Type: graphql.String},
		"email":     {Type: graphql.String},
		"direccion": {Type: graphql.String},
	})
	purchaseLine := object("DetalleCompra", graphql.Fields{
		"id":              {Type: graphql.Int},
		"compra_id":       {Type: graphql.Int},
		"producto_id":     {Type: graphql.Int},
		"cantidad":        {Type: graphql.Int},
		"precio_unitario": {Type: graphql.Float},
	})
	saleLine := object("DetalleVenta", graphql.Fields{
		"id":              {Type: graphql.Int},
		"venta_id":        {Type: graphql.Int},
		"producto_id":     {Type: graphql.Int},
		"cantidad":        {Type: graphql.Int},
		"precio_unitario": {Type: graphql.Float},
	})
	purchase := object("Compra", graphql.Fields{
		"id":           {Type: graphql.Int},
		"fecha":        {Type: graphql.String},
		"total":        {Type: graphql.Float},
		"proveedor_id": {Type: graphql.Int},
		"detalles": {
			Type: graphql.NewList(purchaseLine),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				lines, err := src.Lines.LinesOfPurchase(p.Context, sourceID(p))
				if err != nil {
					return nil, err
				}
				return toMaps(lines)
			},
		},
	})
	sale := object("Venta", graphql.Fields{
		"id":         {Type: graphql.Int},
		"fecha":      {Type: graphql.String},
		"usuario_id": {Type: graphql.Int},
		"total":      {Type: graphql.Float},
		"detalles": {
			Type: graphql.NewList(saleLine),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				lines, err := src.Lines.LinesOfSale(p.Context, sourceID(p))
				if err != nil {
					return nil, err
				}
				return toMaps(lines)
			},
		},
	})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"productos":       list(product, src.Products),
			"producto":        item(product, src.Products),
			"proveedores":     list(supplier, src.Suppliers),
			"proveedor":       item(supplier, src.Suppliers),
			"compras":         list(purchase, src.Purchases),
			"compra":          item(purchase, src.Purchases),
			"ventas":          list(sale, src.Sales),
			"venta":           item(sale, src.Sales),
			"detalle_compras": list(purchaseLine, src.PurchaseLines),
			"detalle_compra":  item(purchaseLine, src.PurchaseLines),
			"detalle_ventas":  list(saleLine, src.SaleLines),
			"detalle_venta":   item(saleLine, src.SaleLines),
		},
	})

	return pkggraphql.NewSchema(query)
}

func object(name string, fields graphql.Fields) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{Name: name, Fields: fields})
}

func list[T any](typ *graphql.Object, repo repositories.Repository[T]) *graphql.Field {
	return &graphql.Field{
		Type: graphql.NewList(typ),
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			rows, err := repo.All(p.Context)
			if err != nil {
				return nil, err
			}
			return toMaps(rows)
		},
	}
}

// item resolves to null for a missing id.
func item[T any](typ *graphql.Object, repo repositories.Repository[T]) *graphql.Field {
	return &graphql.Field{
		Type: typ,
		Args: graphql.FieldConfigArgument{
			"id": {Type: graphql.NewNonNull(graphql.Int)},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			id, _ := p.Args["id"].(int)
			if id <= 0 {
				return nil, nil
			}
			row, err := repo.Find(p.Context, uint(id))
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, nil
			}
			if err != nil {
				return nil, err
			}
			return toMap(row)
		},
	}
}

func sourceID(p graphql.ResolveParams) uint {
	m, _ := p.Source.(map[string]interface{})
	id, _ := m["id"].(float64)
	return uint(id)
}

// toMap turns a model into its JSON field map so the default resolver can
// read fields by their Spanish names.
func toMap(v interface{}) (map[string]interface{}, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func toMaps(v interface{}) ([]map[string]interface{}, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := []map[string]interface{}{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

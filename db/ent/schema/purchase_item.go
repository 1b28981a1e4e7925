package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"github.com/google/uuid"
)

// PurchaseItem maps to the public.purchase_items table.
type PurchaseItem struct {
	ent.Schema
}

func (PurchaseItem) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "purchase_items"},
	}
}

func (PurchaseItem) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(uuid.New).
			Immutable().
			StorageKey("id"),
		field.Int("quantity").Positive(),
		field.Float("unit_price").
			SchemaType(map[string]string{dialect.Postgres: "numeric(12,2)"}),
		field.Float("total_price").
			SchemaType(map[string]string{dialect.Postgres: "numeric(12,2)"}),
	}
}

func (PurchaseItem) Edges() []ent.Edge {
	return []ent.Edge{
		// MANY lines -> ONE purchase (FK: purchase_items.purchase_id)
		edge.From("purchase", Purchase.Type).
			Ref("items").
			Required().
			Unique(),
		// MANY lines -> ONE product (FK: purchase_items.product_id)
		edge.From("product", Product.Type).
			Ref("purchase_items").
			Required().
			Unique(),
	}
}

package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"github.com/google/uuid"
)

// Product maps to the public.products table.
type Product struct {
	ent.Schema
}

func (Product) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "products"},
	}
}

func (Product) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(uuid.New).
			Immutable().
			StorageKey("id"),
		field.String("name").
			NotEmpty().
			Unique().
			SchemaType(map[string]string{dialect.Postgres: "text"}),
		field.String("description").Optional().Nillable(),
		field.String("sku").
			NotEmpty().
			Unique(),
		field.Float("unit_price").
			SchemaType(map[string]string{dialect.Postgres: "numeric(12,2)"}),
		field.Int("stock").Default(0).NonNegative(),
		field.Int("min_stock").Default(5).NonNegative(),
		field.Time("created_at").Default(time.Now),
		field.Time("updated_at").Default(time.Now).UpdateDefault(time.Now),
	}
}

func (Product) Edges() []ent.Edge {
	return []ent.Edge{
		// MANY products -> ONE category (FK: products.category_id)
		edge.From("category", Category.Type).
			Ref("products").
			Unique(),
		// MANY products -> ONE supplier (FK: products.supplier_id)
		edge.From("supplier", Supplier.Type).
			Ref("products").
			Unique(),
		// ONE product -> MANY purchase lines
		edge.To("purchase_items", PurchaseItem.Type),
	}
}

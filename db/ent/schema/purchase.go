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

// Purchase maps to the public.purchases table.
type Purchase struct {
	ent.Schema
}

func (Purchase) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "purchases"},
	}
}

func (Purchase) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(uuid.New).
			Immutable().
			StorageKey("id"),
		field.String("invoice_number").Optional().Nillable(),
		field.Time("purchase_date").
			SchemaType(map[string]string{dialect.Postgres: "date"}),
		field.Float("total_amount").
			SchemaType(map[string]string{dialect.Postgres: "numeric(12,2)"}),
		field.Float("tax_amount").
			Default(0).
			SchemaType(map[string]string{dialect.Postgres: "numeric(12,2)"}),
		field.String("notes").Optional().Nillable(),
		field.Time("created_at").Default(time.Now),
	}
}

func (Purchase) Edges() []ent.Edge {
	return []ent.Edge{
		// MANY purchases -> ONE supplier (FK: purchases.supplier_id)
		edge.From("supplier", Supplier.Type).
			Ref("purchases").
			Required().
			Unique(),
		// ONE purchase -> MANY lines
		edge.To("items", PurchaseItem.Type),
	}
}

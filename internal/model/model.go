package model

// All lists the models managed by auto-migration, parents first.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&Listing{},
		&Message{},
	}
}

package models

// All returns every model in migration order
func All() []any {
	return []any{
		&Owner{},
		&Unit{},
		&Tenant{},
		&Contract{},
		&Invoice{},
		&Payment{},
		&Attachment{},
		&AuditLog{},
		&User{},
	}
}

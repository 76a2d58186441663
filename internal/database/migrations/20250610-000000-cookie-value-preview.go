package migrations

func init() {
	Register(Migration{
		Timestamp:   "20250610-000000",
		Description: "Add value_preview to cookies so listing never decrypts",
		Up: []string{
			`ALTER TABLE cookies ADD COLUMN value_preview TEXT NOT NULL DEFAULT ''`,
		},
	})
}

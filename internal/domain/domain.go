// Package domain holds the persisted entities of the PLC program hub:
// program masters, PLC masters, their mapping history, the uploaded
// document records and template rows, and the program ID sequence.
package domain

// AllModels lists every entity for migration, in dependency order.
func AllModels() []interface{} {
	return []interface{}{
		&Program{},
		&ProgramSequence{},
		&PLC{},
		&PgmMappingHistory{},
		&Document{},
		&PgmTemplate{},
	}
}

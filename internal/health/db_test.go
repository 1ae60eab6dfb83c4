package health

import (
	"database/sql"
	"testing"
)

func TestNewDBChecker(t *testing.T) {
	db := &sql.DB{}

	checker := NewDBChecker(db)
	if checker == nil {
		t.Fatal("expected a checker")
	}
	if checker.db != db {
		t.Error("checker should hold the pool it was given")
	}
}

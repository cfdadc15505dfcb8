// Package audit describes how an account changed across a mutation and logs
// the result as a single line.
package audit

import (
	"log"
	"strings"

	"github.com/dulfinne/User-service/shared/models"
)

type field struct {
	name  string
	value func(*models.AccountView) string
}

// fields lists the compared attributes in response order.
var fields = []field{
	{"id", func(v *models.AccountView) string { return v.ID }},
	{"username", func(v *models.AccountView) string { return v.Username }},
	{"name", func(v *models.AccountView) string { return v.Name }},
	{"surname", func(v *models.AccountView) string { return v.Surname }},
	{"balance", func(v *models.AccountView) string { return v.Balance.String() }},
}

// read returns the field value, or false when it cannot be read.
func (f field) read(v *models.AccountView) (s string, ok bool) {
	if v == nil {
		return "", false
	}
	defer func() {
		if recover() != nil {
			s, ok = "", false
		}
	}()
	return f.value(v), true
}

// Diff returns the fields whose values differ between before and after.
// Fields that cannot be read on either side are skipped.
func Diff(before, after *models.AccountView) []models.FieldChange {
	changes := make([]models.FieldChange, 0, len(fields))
	for _, f := range fields {
		oldValue, okOld := f.read(before)
		newValue, okNew := f.read(after)
		if !okOld || !okNew || oldValue == newValue {
			continue
		}
		changes = append(changes, models.FieldChange{Field: f.name, Old: oldValue, New: newValue})
	}
	return changes
}

// Format renders changes as "field: old -> new" entries joined by "; ".
func Format(changes []models.FieldChange) string {
	parts := make([]string, 0, len(changes))
	for _, c := range changes {
		parts = append(parts, c.Field+": "+c.Old+" -> "+c.New)
	}
	return strings.Join(parts, "; ")
}

type Auditor struct {
	logger *log.Logger
}

// New returns an Auditor writing to logger, or to the standard logger when
// logger is nil.
func New(logger *log.Logger) *Auditor {
	if logger == nil {
		logger = log.Default()
	}
	return &Auditor{logger: logger}
}

// Record logs the change set for username and returns it.
func (a *Auditor) Record(username string, before, after *models.AccountView) []models.FieldChange {
	changes := Diff(before, after)
	a.logger.Printf("Changes detected for user '%s': %s", username, Format(changes))
	return changes
}

package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	appErrors "github.com/noah-isme/university-records/pkg/errors"
)

// Violation describes a write that breaks a schema invariant.
type Violation struct {
	Kind       string
	Table      string
	Column     string
	Constraint string
	Err        error
}

// Error implements the error interface.
func (v *Violation) Error() string {
	if v.Constraint != "" {
		return fmt.Sprintf("%s (%s)", v.Message(), v.Constraint)
	}
	return v.Message()
}

// Unwrap returns the driver error, if any.
func (v *Violation) Unwrap() error { return v.Err }

// Message renders a short human readable description.
func (v *Violation) Message() string {
	entity := entityName(v.Table)
	switch v.Kind {
	case appErrors.KindUnique:
		field := humanize(v.Column)
		if field == "" {
			field = "values"
		}
		return fmt.Sprintf("a %s with the same %s already exists", entity, strings.ToLower(field))
	case appErrors.KindForeignKey:
		return fmt.Sprintf("the referenced %s does not exist", strings.ToLower(humanize(strings.TrimSuffix(v.Column, "_id"))))
	case appErrors.KindNotNull:
		return fmt.Sprintf("%s %s is required", entity, strings.ToLower(humanize(v.Column)))
	case appErrors.KindCheck:
		if v.Column != "" {
			return fmt.Sprintf("%s %s is out of range", entity, strings.ToLower(humanize(v.Column)))
		}
		return fmt.Sprintf("%s values do not meet required conditions", entity)
	default:
		return "constraint violation"
	}
}

// AsError converts the violation into the typed application error.
func (v *Violation) AsError() *appErrors.Error {
	return appErrors.Constraint(v.Kind, v.Error(), v.Err)
}

// postgres SQLSTATE codes, see https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeNotNullViolation    = "23502"
	codeStringTruncation    = "22001"
)

// FromDriver classifies a Postgres driver error. The second value is false
// when err is not a constraint failure.
func FromDriver(err error) (*Violation, bool) {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil, false
	}

	var kind string
	switch string(pqErr.Code) {
	case codeUniqueViolation:
		kind = appErrors.KindUnique
	case codeForeignKeyViolation:
		kind = appErrors.KindForeignKey
	case codeCheckViolation, codeStringTruncation:
		kind = appErrors.KindCheck
	case codeNotNullViolation:
		kind = appErrors.KindNotNull
	default:
		return nil, false
	}

	v := &Violation{
		Kind:       kind,
		Table:      pqErr.Table,
		Column:     pqErr.Column,
		Constraint: pqErr.Constraint,
		Err:        err,
	}
	if known, ok := constraints[pqErr.Constraint]; ok {
		if v.Table == "" {
			v.Table = known.table
		}
		if v.Column == "" {
			v.Column = known.column
		}
	}
	return v, true
}

func entityName(table string) string {
	if table == "" {
		return "record"
	}
	return strings.TrimSuffix(table, "s")
}

func humanize(text string) string {
	if text == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(text, "_", " "))
}

package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
// Con TranslateError activo GORM ya lo traduce a ErrDuplicatedKey; el resto cubre errores sin traducir.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// isNoRows true cuando la consulta no encontró filas.
func isNoRows(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

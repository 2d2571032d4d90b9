package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrInvalidRequest     = errors.New("solicitud inválida: se requiere invoiceIds o sendAll")
	ErrInvalidPercentage  = errors.New("porcentaje de depósito inválido: debe estar entre 0 y 100 (exclusivo)")
	ErrInvalidAmount      = errors.New("monto inválido: no puede ser negativo")
	ErrInvariantViolation = errors.New("la factura viola un invariante de datos")
	ErrSweepInProgress    = errors.New("ya hay un ciclo de recordatorios en ejecución")
)

package domain

import "errors"

// Validation errors surface at the boundary before the core is invoked.
var (
	// ErrInvalidOperation indicates a non-positive quantity or price, or a
	// missing required field.
	ErrInvalidOperation = errors.New("operação inválida")

	ErrUnknownAssetType     = errors.New("tipo de ativo desconhecido")
	ErrUnknownTradeCategory = errors.New("categoria de operação desconhecida")
	ErrUnknownOperationKind = errors.New("tipo de operação desconhecido")

	// ErrInvalidPeriod indicates a month outside 1..12 or a non-positive year.
	ErrInvalidPeriod = errors.New("período inválido")
)

var (
	// ErrOperationNotFound indicates that no operation matches the given ID or
	// asset code.
	ErrOperationNotFound = errors.New("operação não encontrada")
)

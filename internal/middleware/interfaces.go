package middleware

// StructValidator validates decoded request contracts. Handlers depend on
// this rather than on ValidationMiddleware.
type StructValidator interface {
	ValidateStruct(v interface{}) error
}

var _ StructValidator = (*ValidationMiddleware)(nil)

package auth

// SetCompare reemplaza la comparación de contraseñas en los tests.
func SetCompare(uc *AuthUseCase, fn func(hash, password []byte) error) {
	uc.compare = fn
}

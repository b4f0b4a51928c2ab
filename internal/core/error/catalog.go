package errx

import "net/http"

// WrapCatalog maps catalog storage errors to a 503 AppError.
func WrapCatalog(err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusServiceUnavailable, CatalogErrorMessage)
}

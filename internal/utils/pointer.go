package utils

// Ptr returns a pointer to v, for optional request fields such as a
// temperature of 0 that must still be sent.
//
//	config.Temperature = utils.Ptr[float32](0)
func Ptr[T any](v T) *T {
	return &v
}

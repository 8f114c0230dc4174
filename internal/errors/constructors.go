package errors

// Constructors for the failure shapes the tracker actually produces, so
// call sites stay one line and context keys stay consistent.

// Config errors

func ConfigNotFound(path string) *TrackerError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigRequired(field string) *TrackerError {
	return New(CategoryConfig, SeverityFatal, "required configuration missing").
		WithContext("field", field)
}

func ValidationFailed(field, reason string) *TrackerError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Store errors

func StorageError(operation string, cause error) *TrackerError {
	return Wrap(cause, CategoryStorage, SeverityError, "storage operation failed").
		WithContext("operation", operation)
}

func SerializationError(key string, cause error) *TrackerError {
	return Wrap(cause, CategorySerialization, SeverityWarning, "value cannot be serialized").
		WithContext("key", key)
}

func DeserializationError(key string, cause error) *TrackerError {
	return Wrap(cause, CategoryDeserialization, SeverityWarning, "stored value cannot be parsed").
		WithContext("key", key)
}

// Catalog errors

func CatalogError(path string, cause error) *TrackerError {
	return Wrap(cause, CategoryCatalog, SeverityFatal, "catalog load failed").
		WithContext("path", path)
}

// Internal errors

func InternalError(message string, cause error) *TrackerError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}

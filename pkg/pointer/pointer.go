package pointer

// String returns a pointer to the provided string value
func String(value string) *string {
	return &value
}

// StringIfValid returns a pointer to the value if it's valid, otherwise nil
func StringIfValid(valid bool, value string) *string {
	if valid {
		return &value
	}
	return nil
}

// StringCopy returns a pointer that's a copy of the provided value
func StringCopy(value *string) *string {
	if value == nil {
		return nil
	}

	return String(*value)
}

// Int64 returns a pointer to the provided int64 value
func Int64(value int64) *int64 {
	return &value
}

// Int64IfValid returns a pointer to the value if it's valid, otherwise nil
func Int64IfValid(valid bool, value int64) *int64 {
	if valid {
		return &value
	}
	return nil
}

// Int64Copy returns a pointer that's a copy of the provided value
func Int64Copy(value *int64) *int64 {
	if value == nil {
		return nil
	}

	return Int64(*value)
}

// Bool returns a pointer to the provided bool value
func Bool(value bool) *bool {
	return &value
}

// BoolIfValid returns a pointer to the value if it's valid, otherwise nil
func BoolIfValid(valid bool, value bool) *bool {
	if valid {
		return &value
	}
	return nil
}

// BoolCopy returns a pointer that's a copy of the provided value
func BoolCopy(value *bool) *bool {
	if value == nil {
		return nil
	}

	return Bool(*value)
}

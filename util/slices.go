package util

// IndexOfString returns the index of target in the given string slice, or -1 if not found
func IndexOfString(slice []string, target string) int {
	for i, item := range slice {
		if item == target {
			return i
		}
	}
	return -1
}

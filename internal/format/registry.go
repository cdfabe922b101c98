package format

// AssertComplete runs the compile-time-in-spirit completeness check described in
// §4.1: every declared thumbnailable tag must have a registered module. No
// binary under cmd/ calls it; TestAssertComplete_DoesNotPanic runs it. Go
// guarantees every file-level init() in this package (each of which registers
// one format module) has already run by the time any caller outside the package
// can invoke an exported function, so the per-file registration order never
// matters here, unlike it would if this check ran from the package's own init().
func AssertComplete() {
	assertRegistryComplete()
}

// All returns every registered format tag, for diagnostics and CLI listing.
func All() []FormatType {
	tags := make([]FormatType, 0, len(registry))
	for t := range registry {
		tags = append(tags, t)
	}
	return tags
}

// Package config loads and validates the circbuf demo configuration.
//
// A Config has four sections: Buffer (capacity, max size, allocator,
// metrics label), Scenario (values to push, resize target and fill value),
// Metrics (Prometheus endpoint, optional scrape rate limit) and Logging
// (slog level and format).
//
// # Loading
//
// Loader merges layers on top of Default(). Each layer is a JSON or YAML
// file; only the keys present in a layer override earlier values, so an
// override file can be as small as one field:
//
//	loader := config.NewLoader()
//	loader.AddLayer("configs/base.yaml")
//	loader.AddLayer("configs/local.json")
//
//	cfg, err := loader.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// After the file layers, CIRCBUF_* environment variables are applied, for
// example CIRCBUF_BUFFER_CAPACITY=8 or CIRCBUF_SCENARIO_PUSH=1,2,3. Validation
// runs last and is enabled by default.
//
// # Errors
//
// Validation failures wrap errors.ErrInvalidConfig and are classified as
// invalid input. Missing files wrap errors.ErrConfigNotFound; malformed
// documents wrap errors.ErrParsingFailed.
//
// # Layer Schema
//
// Each decoded layer is checked against the embedded JSON Schema in
// schema.json before it is merged. The schema rejects unknown keys and
// mistyped values; range and cross-field rules stay in Validate. Schema
// failures wrap errors.ErrInvalidConfig and are reported even when
// validation is disabled.
//
// # File Safety
//
// Files are read only after the path is checked: relative paths may not
// escape the working directory, the extension must be .json, .json5, .yaml
// or .yml, and the file must be a regular file under 1MB. JSON documents are
// depth-checked before decoding.
package config

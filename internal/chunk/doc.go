// Package chunk decodes resource pot manifests delivered from outside the
// binary and turns them into resourcepot.Pot values.
//
// A manifest lists modules. Each is either a data module, whose exports are
// the literal value in the manifest, or a reference to a factory compiled into
// the binary and registered in a Table under a name. The same schema is
// accepted as JSON, YAML or TOML; the format follows the file extension.
package chunk

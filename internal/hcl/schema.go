package hcl

import "github.com/hashicorp/hcl/v2"

// defineBlock holds the raw body of a `define` block. Its attributes are
// arbitrary, so they are evaluated rather than decoded into a struct.
type defineBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// bundleBlock is the HCL shape of one `bundle "<name>"` block.
type bundleBlock struct {
	Name    string       `hcl:"name,label"`
	Entry   string       `hcl:"entry"`
	Outfile string       `hcl:"outfile,optional"`
	Dedupe  bool         `hcl:"dedupe,optional"`
	Define  *defineBlock `hcl:"define,block"`
}

// fileRoot decodes all recognized top-level blocks from one profile file.
type fileRoot struct {
	Bundles []*bundleBlock `hcl:"bundle,block"`
	Remain  hcl.Body       `hcl:",remain"`
}

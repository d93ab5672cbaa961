// Package emit serializes a dependency graph into a single executable
// bundle: a module table pairing each asset's factory with its
// specifier-to-id mapping, plus a loader that translates specifiers through
// the importing module's own mapping. Emission is a pure function of the
// graph.
package emit

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/bundlego/internal/graph"
)

// ErrEmptyGraph is returned when there is nothing to bundle. A runtime with
// no entry module is meaningless.
var ErrEmptyGraph = errors.New("cannot emit a bundle from an empty graph")

// loader is the runtime embedded in every bundle. Each require(id) call
// builds a fresh module record and re-executes the factory: module code is
// expected to be idempotent, and the absence of a module cache keeps the
// runtime minimal. The factory wrapper gives each module an isolated scope,
// and localRequire closes over that module's own mapping because two modules
// may use the same specifier string for two different targets.
const loader = `(function(modules) {
  function require(id) {
    const [factory, mapping] = modules[id];
    function localRequire(name) {
      return require(mapping[name]);
    }
    const module = { exports: {} };
    factory(localRequire, module, module.exports);
    return module.exports;
  }
  require(0);
})({
`

// Bundle renders the graph as bundle text. Assets are emitted in graph
// order and mappings are serialized as JSON, so output is deterministic and
// every specifier string round-trips exactly.
func Bundle(assets []*graph.Asset) (string, error) {
	if len(assets) == 0 {
		return "", ErrEmptyGraph
	}

	var b strings.Builder
	b.WriteString(loader)
	for _, asset := range assets {
		mapping, err := encodeMapping(asset.Mapping)
		if err != nil {
			return "", fmt.Errorf("failed to encode mapping of module %d (%s): %w", asset.ID, asset.AbsolutePath, err)
		}
		fmt.Fprintf(&b, "%d: [function (require, module, exports) {\n%s\n}, %s],\n", asset.ID, asset.Code, mapping)
	}
	b.WriteString("});\n")
	return b.String(), nil
}

// encodeMapping renders a specifier-to-id mapping as a JSON object literal.
// JSON is a subset of JS, keys are sorted by the encoder, and its string
// escaping is unambiguous, which covers specifiers containing special
// characters.
func encodeMapping(mapping map[string]int) (string, error) {
	if len(mapping) == 0 {
		return "{}", nil
	}
	encoded, err := json.Marshal(mapping)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

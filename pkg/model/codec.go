package model

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/MrCodeEU/fisherface/pkg/dataset"
	"github.com/MrCodeEU/fisherface/pkg/faceerr"
)

// Encode writes m as a YAML mapping with keys in file order.
func Encode(w io.Writer, m *Model) error {
	if err := m.Validate(); err != nil {
		return err
	}

	var doc mapping
	doc.add("ModelID", strNode(m.ModelID))
	doc.add("CreatedAt", strNode(m.CreatedAt.UTC().Format(time.RFC3339Nano)))
	doc.add("nImages", intNode(m.NumImages()))
	doc.add("nPeople", intNode(m.NumClasses()))
	for k, name := range m.PersonNames {
		doc.add(fmt.Sprintf("PersonID_%d", k+1), strNode(name))
	}
	for i, path := range m.ImagePaths {
		doc.add(fmt.Sprintf("ImageID_%d", i), strNode(path))
	}
	doc.add("nLDAEigens", intNode(m.NumEigens()))
	doc.add("nClasses", intNode(m.NumClasses()))
	doc.add("nFisherFaces", intNode(m.NumFisherFaces()))
	doc.add("PersonIDMatrix", intSeq(m.ClassIDs))
	for i, v := range m.EigenVectors {
		doc.add(fmt.Sprintf("PCAEigenVector_%d", i), imageNode(v))
	}
	doc.add("PCAEigenValues", floatSeq(m.EigenValues))
	doc.add("LDAEigenVectors", matrixNode(m.LDAVectors))
	doc.add("LDAEigenValues", floatSeq(m.LDAValues))
	doc.add("ProjectedLDAFaceMat", matrixNode(m.ClassProjections))
	doc.add("AverageImage", imageNode(m.AverageImage))
	doc.add("AverageProjectedImage", floatSeq(m.AverageProjected))
	for k, id := range m.Classes {
		doc.add(fmt.Sprintf("Class_%d", k), intNode(id))
	}
	doc.add("ProjectedFaceMatrix", matrixNode(m.ProjectedFaces))
	doc.add("EuclideanThreshold", floatNode(m.EuclideanThreshold))
	doc.add("PCAEuclideanThreshold", floatNode(m.PCAEuclideanThreshold))
	doc.add("MahalanobisThreshold", floatNode(m.MahalanobisThreshold))

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc.node()); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	return enc.Close()
}

// Decode parses a model document and validates it.
func Decode(data []byte) (*Model, error) {
	const op = "model.Decode"

	var root yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&root); err != nil {
		return nil, faceerr.Wrap(faceerr.KindParse, op, "model is not a YAML document", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, faceerr.Parse(op, "model document is not a mapping")
	}

	d := newDecoder(root.Content[0])
	m := &Model{ModelID: d.str("ModelID")}

	if created := d.str("CreatedAt"); d.err == nil {
		t, err := time.Parse(time.RFC3339Nano, created)
		if err != nil {
			d.fail(faceerr.Wrap(faceerr.KindParse, op, "CreatedAt is not a timestamp", err))
		}
		m.CreatedAt = t
	}

	nImages := d.count("nImages")
	nPeople := d.count("nPeople")
	for k := 1; k <= nPeople && d.declared("nPeople", nPeople, fmt.Sprintf("PersonID_%d", k)); k++ {
		m.PersonNames = append(m.PersonNames, d.str(fmt.Sprintf("PersonID_%d", k)))
	}
	for i := 0; i < nImages && d.declared("nImages", nImages, fmt.Sprintf("ImageID_%d", i)); i++ {
		m.ImagePaths = append(m.ImagePaths, d.str(fmt.Sprintf("ImageID_%d", i)))
	}
	nEigens := d.count("nLDAEigens")
	nClasses := d.count("nClasses")
	nFisher := d.count("nFisherFaces")
	m.ClassIDs = d.integers("PersonIDMatrix")
	for i := 0; i < nEigens && d.declared("nLDAEigens", nEigens, fmt.Sprintf("PCAEigenVector_%d", i)); i++ {
		m.EigenVectors = append(m.EigenVectors, d.image(fmt.Sprintf("PCAEigenVector_%d", i)))
	}
	m.EigenValues = d.numbers("PCAEigenValues")
	m.LDAVectors = d.matrix("LDAEigenVectors")
	m.LDAValues = d.numbers("LDAEigenValues")
	m.ClassProjections = d.matrix("ProjectedLDAFaceMat")
	m.AverageImage = d.image("AverageImage")
	m.AverageProjected = d.numbers("AverageProjectedImage")
	for k := 0; k < nClasses && d.declared("nClasses", nClasses, fmt.Sprintf("Class_%d", k)); k++ {
		m.Classes = append(m.Classes, d.integer(fmt.Sprintf("Class_%d", k)))
	}
	m.ProjectedFaces = d.matrix("ProjectedFaceMatrix")
	m.EuclideanThreshold = d.number("EuclideanThreshold")
	m.PCAEuclideanThreshold = d.number("PCAEuclideanThreshold")
	m.MahalanobisThreshold = d.number("MahalanobisThreshold")
	if d.err != nil {
		return nil, d.err
	}

	if nPeople != nClasses {
		return nil, faceerr.CorruptModel(op, fmt.Sprintf("nPeople %d differs from nClasses %d", nPeople, nClasses))
	}
	if got := m.NumFisherFaces(); got != nFisher {
		return nil, faceerr.CorruptModel(op, fmt.Sprintf("nFisherFaces is %d but LDAEigenVectors has %d rows", nFisher, got))
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

type mapping struct {
	content []*yaml.Node
}

func (m *mapping) add(key string, value *yaml.Node) {
	m.content = append(m.content, strNode(key), value)
}

func (m *mapping) node() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Content: m.content}
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func intNode(i int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(i)}
}

func floatNode(f float64) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: formatFloat(f)}
}

// formatFloat writes the shortest representation that parses back to f.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func parseFloat(s string) (float64, error) {
	switch strings.ToLower(s) {
	case ".nan":
		return math.NaN(), nil
	case ".inf", "+.inf":
		return math.Inf(1), nil
	case "-.inf":
		return math.Inf(-1), nil
	}
	return strconv.ParseFloat(s, 64)
}

func floatSeq(values []float64) *yaml.Node {
	n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
	for _, v := range values {
		n.Content = append(n.Content, floatNode(v))
	}
	return n
}

func intSeq(values []int) *yaml.Node {
	n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
	for _, v := range values {
		n.Content = append(n.Content, intNode(v))
	}
	return n
}

func grid(rows, cols int, data []float64) *yaml.Node {
	var m mapping
	m.add("rows", intNode(rows))
	m.add("cols", intNode(cols))
	m.add("data", floatSeq(data))
	return m.node()
}

func matrixNode(d *mat.Dense) *yaml.Node {
	r, c := d.Dims()
	data := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		data = append(data, d.RawRowView(i)...)
	}
	return grid(r, c, data)
}

func imageNode(g *dataset.Gray) *yaml.Node {
	return grid(g.Height, g.Width, g.Pix)
}

// decoder reads typed values out of a YAML mapping. The first failure sticks
// and turns every later read into a no-op.
type decoder struct {
	fields map[string]*yaml.Node
	err    error
}

func newDecoder(m *yaml.Node) *decoder {
	d := &decoder{fields: make(map[string]*yaml.Node, len(m.Content)/2)}
	for i := 0; i+1 < len(m.Content); i += 2 {
		key := m.Content[i].Value
		if _, dup := d.fields[key]; !dup {
			d.fields[key] = m.Content[i+1]
		}
	}
	return d
}

func (d *decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *decoder) parseErr(key, msg string) {
	d.fail(faceerr.Parse("model.Decode", fmt.Sprintf("%s: %s", key, msg)))
}

func (d *decoder) lookup(key string, kind yaml.Kind) *yaml.Node {
	if d.err != nil {
		return nil
	}
	n, ok := d.fields[key]
	if !ok {
		d.parseErr(key, "missing key")
		return nil
	}
	if n.Kind != kind {
		d.parseErr(key, "unexpected value type")
		return nil
	}
	return n
}

func (d *decoder) str(key string) string {
	n := d.lookup(key, yaml.ScalarNode)
	if n == nil {
		return ""
	}
	return n.Value
}

func (d *decoder) integer(key string) int {
	n := d.lookup(key, yaml.ScalarNode)
	if n == nil {
		return 0
	}
	v, err := strconv.Atoi(n.Value)
	if err != nil {
		d.parseErr(key, fmt.Sprintf("%q is not an integer", n.Value))
	}
	return v
}

// count reads a non-negative element count.
func (d *decoder) count(key string) int {
	v := d.integer(key)
	if d.err == nil && v < 0 {
		d.fail(faceerr.CorruptModel("model.Decode", fmt.Sprintf("%s is negative", key)))
	}
	return v
}

// declared reports whether the indexed key exists. A missing key means the
// document stores fewer entries than countKey declares.
func (d *decoder) declared(countKey string, n int, key string) bool {
	if d.err != nil {
		return false
	}
	if _, ok := d.fields[key]; !ok {
		d.fail(faceerr.CorruptModel("model.Decode",
			fmt.Sprintf("%s is %d but %s is missing", countKey, n, key)))
		return false
	}
	return true
}

func (d *decoder) number(key string) float64 {
	n := d.lookup(key, yaml.ScalarNode)
	if n == nil {
		return 0
	}
	v, err := parseFloat(n.Value)
	if err != nil {
		d.parseErr(key, fmt.Sprintf("%q is not a number", n.Value))
	}
	return v
}

func (d *decoder) numbersOf(key string, n *yaml.Node) []float64 {
	out := make([]float64, len(n.Content))
	for i, item := range n.Content {
		if item.Kind != yaml.ScalarNode {
			d.parseErr(key, fmt.Sprintf("element %d is not a number", i))
			return nil
		}
		v, err := parseFloat(item.Value)
		if err != nil {
			d.parseErr(key, fmt.Sprintf("element %d %q is not a number", i, item.Value))
			return nil
		}
		out[i] = v
	}
	return out
}

func (d *decoder) numbers(key string) []float64 {
	n := d.lookup(key, yaml.SequenceNode)
	if n == nil {
		return nil
	}
	return d.numbersOf(key, n)
}

func (d *decoder) integers(key string) []int {
	n := d.lookup(key, yaml.SequenceNode)
	if n == nil {
		return nil
	}
	out := make([]int, len(n.Content))
	for i, item := range n.Content {
		v, err := strconv.Atoi(item.Value)
		if err != nil || item.Kind != yaml.ScalarNode {
			d.parseErr(key, fmt.Sprintf("element %d %q is not an integer", i, item.Value))
			return nil
		}
		out[i] = v
	}
	return out
}

// grid reads a {rows, cols, data} mapping.
func (d *decoder) grid(key string) (rows, cols int, data []float64) {
	n := d.lookup(key, yaml.MappingNode)
	if n == nil {
		return 0, 0, nil
	}
	sub := newDecoder(n)
	rows = sub.integer("rows")
	cols = sub.integer("cols")
	if s := sub.lookup("data", yaml.SequenceNode); s != nil {
		data = sub.numbersOf("data", s)
	}
	if sub.err != nil {
		d.parseErr(key, sub.err.Error())
		return 0, 0, nil
	}
	if rows <= 0 || cols <= 0 || len(data) != rows*cols {
		d.fail(faceerr.CorruptModel("model.Decode",
			fmt.Sprintf("%s: %dx%d grid holds %d values", key, rows, cols, len(data))))
		return 0, 0, nil
	}
	return rows, cols, data
}

func (d *decoder) matrix(key string) *mat.Dense {
	rows, cols, data := d.grid(key)
	if data == nil {
		return nil
	}
	return mat.NewDense(rows, cols, data)
}

func (d *decoder) image(key string) *dataset.Gray {
	rows, cols, data := d.grid(key)
	if data == nil {
		return nil
	}
	return &dataset.Gray{Width: cols, Height: rows, Pix: data}
}

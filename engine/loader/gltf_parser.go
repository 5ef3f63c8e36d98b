package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// Common errors returned by the parser
var (
	errInvalidGLTFVersion = errors.New("invalid glTF version: must be 2.x")
	errInvalidGLBMagic    = errors.New("invalid GLB magic number")
	errInvalidGLBVersion  = errors.New("invalid GLB version: must be 2")
	errMissingJSONChunk   = errors.New("GLB file missing JSON chunk")
	errInvalidBufferURI   = errors.New("invalid buffer URI")
	errBufferSizeMismatch = errors.New("buffer size mismatch")
	errAccessorBounds     = errors.New("accessor reads past the end of its buffer")
)

// gltfParserImpl is the implementation of the gltfParser interface.
type gltfParserImpl struct {
	baseDir        string
	document       *gltfDocument
	glbBinaryChunk []byte
}

// gltfParser defines the interface for loading a glTF/GLB document and reading typed
// accessor data out of its buffers. This is internal to the loader package.
type gltfParser interface {
	// Parse loads and parses a glTF/GLB file from the given path.
	// GLB is detected by extension or by the magic number.
	//
	// Parameters:
	//   - path: path to the glTF or GLB file
	//
	// Returns:
	//   - error: error if parsing fails
	Parse(path string) error

	// ParseReader parses a glTF document from a reader. External buffer URIs are resolved
	// against the working directory.
	//
	// Parameters:
	//   - r: reader containing glTF JSON or GLB data
	//   - isGLB: true if the data is in GLB format
	//
	// Returns:
	//   - error: error if parsing fails
	ParseReader(r io.Reader, isGLB bool) error

	// Document returns the parsed glTF document, or nil before a successful parse.
	//
	// Returns:
	//   - *gltfDocument: the parsed document or nil
	Document() *gltfDocument

	// ReadFloats reads an accessor of the given element type as flat float32 data.
	// FLOAT components are read directly; normalized integer components are scaled to [0, 1].
	//
	// Parameters:
	//   - accessorIndex: the index of the accessor
	//   - accessorType: the required element type (VEC2, VEC3, VEC4, MAT4, ...)
	//
	// Returns:
	//   - []float32: count * components values
	//   - error: error if the accessor has the wrong type or reading fails
	ReadFloats(accessorIndex int, accessorType string) ([]float32, error)

	// ReadUints reads an accessor of unsigned integer components as flat uint32 data.
	//
	// Parameters:
	//   - accessorIndex: the index of the accessor
	//   - accessorType: the required element type (SCALAR for indices, VEC4 for joints)
	//
	// Returns:
	//   - []uint32: count * components values
	//   - error: error if the accessor has the wrong type or reading fails
	ReadUints(accessorIndex int, accessorType string) ([]uint32, error)
}

var _ gltfParser = &gltfParserImpl{}

// newGLTFParser creates a new glTF parser instance.
func newGLTFParser() gltfParser {
	return &gltfParserImpl{}
}

func (p *gltfParserImpl) Document() *gltfDocument {
	return p.document
}

func (p *gltfParserImpl) Parse(path string) error {
	p.baseDir = filepath.Dir(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	isGLB := strings.EqualFold(filepath.Ext(path), ".glb") ||
		(len(data) >= 4 && binary.LittleEndian.Uint32(data[:4]) == gltfGLBMagic)
	return p.parse(data, isGLB)
}

func (p *gltfParserImpl) ParseReader(r io.Reader, isGLB bool) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read data: %w", err)
	}
	return p.parse(data, isGLB)
}

func (p *gltfParserImpl) parse(data []byte, isGLB bool) error {
	jsonData := data
	if isGLB {
		var err error
		if jsonData, p.glbBinaryChunk, err = splitGLB(data); err != nil {
			return err
		}
	}

	var doc gltfDocument
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return fmt.Errorf("failed to parse glTF JSON: %w", err)
	}
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return errInvalidGLTFVersion
	}
	if err := p.loadBuffers(&doc); err != nil {
		return fmt.Errorf("failed to load buffers: %w", err)
	}

	p.document = &doc
	return nil
}

// splitGLB returns the JSON and BIN chunks of a GLB container.
func splitGLB(data []byte) (jsonChunk, binChunk []byte, err error) {
	if len(data) < 12 {
		return nil, nil, errors.New("GLB file too small")
	}

	r := bytes.NewReader(data)
	var header gltfGLBHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, nil, fmt.Errorf("failed to read GLB header: %w", err)
	}
	if header.Magic != gltfGLBMagic {
		return nil, nil, errInvalidGLBMagic
	}
	if header.Version != gltfGLBVersion {
		return nil, nil, errInvalidGLBVersion
	}

	for {
		var chunk gltfGLBChunkHeader
		if err := binary.Read(r, binary.LittleEndian, &chunk); err != nil {
			if err == io.EOF {
				break
			}
			return nil, nil, fmt.Errorf("failed to read chunk header: %w", err)
		}
		if int64(chunk.ChunkLength) > int64(r.Len()) {
			return nil, nil, fmt.Errorf("GLB chunk length %d exceeds remaining %d bytes", chunk.ChunkLength, r.Len())
		}
		body := make([]byte, chunk.ChunkLength)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, nil, fmt.Errorf("failed to read chunk data: %w", err)
		}

		switch chunk.ChunkType {
		case gltfGLBChunkJSON:
			jsonChunk = body
		case gltfGLBChunkBIN:
			binChunk = body
		}
	}

	if jsonChunk == nil {
		return nil, nil, errMissingJSONChunk
	}
	return jsonChunk, binChunk, nil
}

// loadBuffers fills every buffer from its URI, an embedded data URI, or the GLB BIN chunk.
func (p *gltfParserImpl) loadBuffers(doc *gltfDocument) error {
	for i := range doc.Buffers {
		buf := &doc.Buffers[i]

		switch {
		case buf.URI == "" && i == 0 && p.glbBinaryChunk != nil:
			buf.Data = p.glbBinaryChunk
		case buf.URI == "":
			return fmt.Errorf("buffer %d has no URI and no GLB binary chunk", i)
		default:
			data, err := p.loadBufferURI(buf.URI)
			if err != nil {
				return fmt.Errorf("buffer %d: %w", i, err)
			}
			buf.Data = data
		}

		if len(buf.Data) < buf.ByteLength {
			return fmt.Errorf("buffer %d: %w", i, errBufferSizeMismatch)
		}
	}
	return nil
}

func (p *gltfParserImpl) loadBufferURI(uri string) ([]byte, error) {
	if strings.HasPrefix(uri, "data:") {
		return decodeDataURI(uri)
	}

	data, err := os.ReadFile(filepath.Join(p.baseDir, uri))
	if err != nil {
		return nil, fmt.Errorf("failed to load buffer file %q: %w", uri, err)
	}
	return data, nil
}

// decodeDataURI decodes data:[<mediatype>];base64,<data>.
func decodeDataURI(uri string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, errInvalidBufferURI
	}
	if !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("unsupported data URI encoding: %s", header)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	return data, nil
}

// --- Accessor Data Reading ---

// accessorElements returns each element of an accessor as a byte slice into its buffer.
func (p *gltfParserImpl) accessorElements(accessorIndex int, accessorType string) (*gltfAccessor, [][]byte, error) {
	if p.document == nil {
		return nil, nil, errors.New("no document loaded")
	}
	doc := p.document
	if accessorIndex < 0 || accessorIndex >= len(doc.Accessors) {
		return nil, nil, fmt.Errorf("accessor index %d out of range", accessorIndex)
	}

	acc := &doc.Accessors[accessorIndex]
	switch {
	case acc.Type != accessorType:
		return nil, nil, fmt.Errorf("accessor %d is %s, want %s", accessorIndex, acc.Type, accessorType)
	case acc.Sparse != nil:
		return nil, nil, fmt.Errorf("accessor %d: sparse accessors are not supported", accessorIndex)
	case acc.BufferView == nil:
		return nil, nil, fmt.Errorf("accessor %d has no bufferView", accessorIndex)
	case *acc.BufferView < 0 || *acc.BufferView >= len(doc.BufferViews):
		return nil, nil, fmt.Errorf("accessor %d: bufferView %d out of range", accessorIndex, *acc.BufferView)
	}

	bv := &doc.BufferViews[*acc.BufferView]
	if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) {
		return nil, nil, fmt.Errorf("bufferView %d: buffer %d out of range", *acc.BufferView, bv.Buffer)
	}
	data := doc.Buffers[bv.Buffer].Data

	elementSize := gltfComponentTypeSize(acc.ComponentType) * gltfAccessorTypeComponentCount(acc.Type)
	if elementSize == 0 {
		return nil, nil, fmt.Errorf("accessor %d: unsupported layout %s/%d", accessorIndex, acc.Type, acc.ComponentType)
	}
	stride := elementSize
	if bv.ByteStride != nil && *bv.ByteStride > 0 {
		stride = *bv.ByteStride
	}

	start := bv.ByteOffset + acc.ByteOffset
	if acc.Count < 0 || start < 0 {
		return nil, nil, fmt.Errorf("accessor %d: count %d at offset %d: %w", accessorIndex, acc.Count, start, errAccessorBounds)
	}
	// Checked by division so a huge count cannot overflow or allocate before rejection.
	if acc.Count > 0 {
		room := len(data) - start - elementSize
		if room < 0 || (acc.Count-1) > room/stride {
			return nil, nil, fmt.Errorf("accessor %d: %d elements of %d bytes from offset %d exceed %d-byte buffer: %w",
				accessorIndex, acc.Count, stride, start, len(data), errAccessorBounds)
		}
	}

	out := make([][]byte, acc.Count)
	for i := range out {
		off := start + i*stride
		out[i] = data[off : off+elementSize]
	}
	return acc, out, nil
}

func (p *gltfParserImpl) ReadFloats(accessorIndex int, accessorType string) ([]float32, error) {
	acc, elems, err := p.accessorElements(accessorIndex, accessorType)
	if err != nil {
		return nil, err
	}
	if acc.ComponentType != gltfComponentTypeFloat && !acc.Normalized {
		return nil, fmt.Errorf("accessor %d: component type %d is neither FLOAT nor normalized", accessorIndex, acc.ComponentType)
	}

	size := gltfComponentTypeSize(acc.ComponentType)
	n := gltfAccessorTypeComponentCount(acc.Type)
	out := make([]float32, 0, len(elems)*n)
	for _, e := range elems {
		for c := 0; c < n; c++ {
			b := e[c*size:]
			switch acc.ComponentType {
			case gltfComponentTypeFloat:
				out = append(out, math.Float32frombits(binary.LittleEndian.Uint32(b)))
			case gltfComponentTypeUnsignedByte:
				out = append(out, float32(b[0])/255)
			case gltfComponentTypeUnsignedShort:
				out = append(out, float32(binary.LittleEndian.Uint16(b))/65535)
			case gltfComponentTypeByte:
				out = append(out, max(float32(int8(b[0]))/127, -1))
			case gltfComponentTypeShort:
				out = append(out, max(float32(int16(binary.LittleEndian.Uint16(b)))/32767, -1))
			default:
				return nil, fmt.Errorf("accessor %d: unsupported component type %d", accessorIndex, acc.ComponentType)
			}
		}
	}
	return out, nil
}

func (p *gltfParserImpl) ReadUints(accessorIndex int, accessorType string) ([]uint32, error) {
	acc, elems, err := p.accessorElements(accessorIndex, accessorType)
	if err != nil {
		return nil, err
	}

	size := gltfComponentTypeSize(acc.ComponentType)
	n := gltfAccessorTypeComponentCount(acc.Type)
	out := make([]uint32, 0, len(elems)*n)
	for _, e := range elems {
		for c := 0; c < n; c++ {
			b := e[c*size:]
			switch acc.ComponentType {
			case gltfComponentTypeUnsignedByte:
				out = append(out, uint32(b[0]))
			case gltfComponentTypeUnsignedShort:
				out = append(out, uint32(binary.LittleEndian.Uint16(b)))
			case gltfComponentTypeUnsignedInt:
				out = append(out, binary.LittleEndian.Uint32(b))
			default:
				return nil, fmt.Errorf("accessor %d: unsupported integer component type %d", accessorIndex, acc.ComponentType)
			}
		}
	}
	return out, nil
}

// --- Helper Functions ---

func gltfComponentTypeSize(componentType int) int {
	switch componentType {
	case gltfComponentTypeByte, gltfComponentTypeUnsignedByte:
		return 1
	case gltfComponentTypeShort, gltfComponentTypeUnsignedShort:
		return 2
	case gltfComponentTypeUnsignedInt, gltfComponentTypeFloat:
		return 4
	default:
		return 0
	}
}

func gltfAccessorTypeComponentCount(accessorType string) int {
	switch accessorType {
	case gltfAccessorTypeScalar:
		return 1
	case gltfAccessorTypeVec2:
		return 2
	case gltfAccessorTypeVec3:
		return 3
	case gltfAccessorTypeVec4:
		return 4
	case gltfAccessorTypeMat4:
		return 16
	default:
		return 0
	}
}

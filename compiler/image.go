package compiler

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/npillmayer/donitsi/bytecode"
	"github.com/npillmayer/donitsi/runtime"
)

// ImageVersion is the version of the bytecode image format.
const ImageVersion = 2

// ErrCorruptImage is returned for images which fail verification.
var ErrCorruptImage = errors.New("corrupt bytecode image")

// Image is a serializable snapshot of a compiler: identifier table, constant
// pool and blocks, plus the id of the block to start execution with.
type Image struct {
	Version      int              `cbor:"1,keyasint"`
	Idents       []string         `cbor:"2,keyasint"`
	Consts       []Const          `cbor:"3,keyasint"`
	Blocks       []bytecode.Block `cbor:"4,keyasint"`
	Entry        int              `cbor:"5,keyasint"`
	Fingerprints []string         `cbor:"6,keyasint"` // one per block
	Constructors [][]int          `cbor:"7,keyasint"` // constructor sites, one list per block
}

// Const is the wire form of a constant.
type Const struct {
	Kind   runtime.Kind `cbor:"1,keyasint"`
	Int    int64        `cbor:"2,keyasint,omitempty"`
	Float  float64      `cbor:"3,keyasint,omitempty"`
	Str    string       `cbor:"4,keyasint,omitempty"`
	Bool   bool         `cbor:"5,keyasint,omitempty"`
	Items  []Const      `cbor:"6,keyasint,omitempty"`
	Block  int          `cbor:"7,keyasint,omitempty"`
	Params int          `cbor:"8,keyasint,omitempty"`
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("compiler: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Image creates a snapshot of the compiler's state, with execution starting
// at block entry.
func (c *Compiler) Image(entry int) (*Image, error) {
	if _, ok := c.Block(entry); !ok {
		return nil, fmt.Errorf("image entry block #%d does not exist", entry)
	}
	img := &Image{
		Version: ImageVersion,
		Idents:  c.idents.Names(),
		Blocks:  c.blocks,
		Entry:   entry,
	}
	img.Constructors = make([][]int, len(c.blocks))
	for i := range c.blocks {
		img.Constructors[i] = c.Constructors(i)
	}
	for _, v := range c.consts {
		k, err := toConst(v)
		if err != nil {
			return nil, err
		}
		img.Consts = append(img.Consts, k)
	}
	for _, b := range c.blocks {
		fp, err := bytecode.Fingerprint(b)
		if err != nil {
			return nil, err
		}
		img.Fingerprints = append(img.Fingerprints, fp)
	}
	return img, nil
}

// FromImage creates a compiler from an image. Further compilation units
// extend the image's tables.
func FromImage(img *Image) (*Compiler, error) {
	if err := img.Verify(); err != nil {
		return nil, err
	}
	c := New()
	for _, name := range img.Idents {
		c.idents.Intern(name)
	}
	for _, k := range img.Consts {
		v, err := fromConst(k)
		if err != nil {
			return nil, err
		}
		c.consts = append(c.consts, v)
	}
	c.blocks = append(c.blocks, img.Blocks...)
	c.ctors = append(c.ctors, img.Constructors...)
	return c, nil
}

// Verify checks the version and the block fingerprints of an image.
func (img *Image) Verify() error {
	if img.Version != ImageVersion {
		return fmt.Errorf("%w: version %d, expected %d", ErrCorruptImage, img.Version, ImageVersion)
	}
	if len(img.Fingerprints) != len(img.Blocks) {
		return fmt.Errorf("%w: %d fingerprints for %d blocks", ErrCorruptImage,
			len(img.Fingerprints), len(img.Blocks))
	}
	for i, b := range img.Blocks {
		fp, err := bytecode.Fingerprint(b)
		if err != nil {
			return err
		}
		if fp != img.Fingerprints[i] {
			return fmt.Errorf("%w: fingerprint mismatch for block #%d", ErrCorruptImage, i)
		}
	}
	if len(img.Constructors) != len(img.Blocks) {
		return fmt.Errorf("%w: constructor sites for %d blocks, have %d blocks", ErrCorruptImage,
			len(img.Constructors), len(img.Blocks))
	}
	for i, sites := range img.Constructors {
		for j, pc := range sites {
			if pc < 0 || pc >= len(img.Blocks[i]) || img.Blocks[i][pc].Op != bytecode.LoadIdent ||
				(j > 0 && sites[j-1] >= pc) {
				return fmt.Errorf("%w: bad constructor site %d in block #%d", ErrCorruptImage, pc, i)
			}
		}
	}
	if img.Entry < 0 || img.Entry >= len(img.Blocks) {
		return fmt.Errorf("%w: entry block #%d out of range", ErrCorruptImage, img.Entry)
	}
	return nil
}

// EncodeImage serializes an image to CBOR bytes.
func EncodeImage(img *Image) ([]byte, error) {
	data, err := cborEncMode.Marshal(img)
	if err != nil {
		return nil, fmt.Errorf("compiler: marshal image: %w", err)
	}
	return data, nil
}

// DecodeImage deserializes an image from CBOR bytes and verifies it.
func DecodeImage(data []byte) (*Image, error) {
	var img Image
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("compiler: unmarshal image: %w", err)
	}
	if err := img.Verify(); err != nil {
		return nil, err
	}
	return &img, nil
}

func toConst(v runtime.Value) (Const, error) {
	k := Const{Kind: v.Kind()}
	switch x := v.(type) {
	case runtime.NoneType:
	case runtime.Int:
		k.Int = int64(x)
	case runtime.Float:
		k.Float = float64(x)
	case runtime.Str:
		k.Str = string(x)
	case runtime.Bool:
		k.Bool = bool(x)
	case runtime.Array:
		for _, item := range x {
			ik, err := toConst(item)
			if err != nil {
				return k, err
			}
			k.Items = append(k.Items, ik)
		}
	case runtime.Proto:
		k.Block, k.Params = x.Block, x.Params
	default:
		return k, fmt.Errorf("value of kind %s cannot be stored in an image", v.Kind())
	}
	return k, nil
}

func fromConst(k Const) (runtime.Value, error) {
	switch k.Kind {
	case runtime.NoneKind:
		return runtime.None, nil
	case runtime.IntKind:
		return runtime.Int(k.Int), nil
	case runtime.FloatKind:
		return runtime.Float(k.Float), nil
	case runtime.StrKind:
		return runtime.Str(k.Str), nil
	case runtime.BoolKind:
		return runtime.Bool(k.Bool), nil
	case runtime.ArrayKind:
		arr := make(runtime.Array, 0, len(k.Items))
		for _, ik := range k.Items {
			item, err := fromConst(ik)
			if err != nil {
				return nil, err
			}
			arr = append(arr, item)
		}
		return arr, nil
	case runtime.ProtoKind:
		return runtime.Proto{Block: k.Block, Params: k.Params}, nil
	}
	return nil, fmt.Errorf("%w: constant of kind %s", ErrCorruptImage, k.Kind)
}

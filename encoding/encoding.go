// Package encoding defines the closed set of binary encodings a compiled
// schema is made of, and converts between their JSON descriptors and typed
// plans.
package encoding

// Name identifies an encoding in descriptors.
type Name string

const (
	BoundedMultiple8BitsEnumFixed     Name = "BOUNDED_MULTIPLE_8BITS_ENUM_FIXED"
	FloorMultipleEnumVarint           Name = "FLOOR_MULTIPLE_ENUM_VARINT"
	RoofMultipleMirrorEnumVarint      Name = "ROOF_MULTIPLE_MIRROR_ENUM_VARINT"
	ArbitraryMultipleZigzagVarint     Name = "ARBITRARY_MULTIPLE_ZIGZAG_VARINT"
	DoubleVarintTuple                 Name = "DOUBLE_VARINT_TUPLE"
	ByteChoiceIndex                   Name = "BYTE_CHOICE_INDEX"
	LargeChoiceIndex                  Name = "LARGE_CHOICE_INDEX"
	TopLevelByteChoiceIndex           Name = "TOP_LEVEL_BYTE_CHOICE_INDEX"
	ConstNone                         Name = "CONST_NONE"
	UTF8StringNoLength                Name = "UTF8_STRING_NO_LENGTH"
	FloorVarintPrefixUTF8StringShared Name = "FLOOR_VARINT_PREFIX_UTF8_STRING_SHARED"
	RoofVarintPrefixUTF8StringShared  Name = "ROOF_VARINT_PREFIX_UTF8_STRING_SHARED"
	Bounded8BitPrefixUTF8StringShared Name = "BOUNDED_8BIT_PREFIX_UTF8_STRING_SHARED"
	RFC3339DateIntegerTriplet         Name = "RFC3339_DATE_INTEGER_TRIPLET"
	PrefixVarintLengthStringShared    Name = "PREFIX_VARINT_LENGTH_STRING_SHARED"
	FixedTypedArray                   Name = "FIXED_TYPED_ARRAY"
	Bounded8BitsTypedArray            Name = "BOUNDED_8BITS_TYPED_ARRAY"
	FloorTypedArray                   Name = "FLOOR_TYPED_ARRAY"
	RoofTypedArray                    Name = "ROOF_TYPED_ARRAY"
	FixedTypedArbitraryObject         Name = "FIXED_TYPED_ARBITRARY_OBJECT"
	VarintTypedArbitraryObject        Name = "VARINT_TYPED_ARBITRARY_OBJECT"
	AnyPackedTypeTagBytePrefix        Name = "ANY_PACKED_TYPE_TAG_BYTE_PREFIX"
)

// Names lists every encoding name.
var Names = []Name{
	BoundedMultiple8BitsEnumFixed, FloorMultipleEnumVarint, RoofMultipleMirrorEnumVarint,
	ArbitraryMultipleZigzagVarint, DoubleVarintTuple, ByteChoiceIndex, LargeChoiceIndex,
	TopLevelByteChoiceIndex, ConstNone, UTF8StringNoLength, FloorVarintPrefixUTF8StringShared,
	RoofVarintPrefixUTF8StringShared, Bounded8BitPrefixUTF8StringShared, RFC3339DateIntegerTriplet,
	PrefixVarintLengthStringShared, FixedTypedArray, Bounded8BitsTypedArray, FloorTypedArray,
	RoofTypedArray, FixedTypedArbitraryObject, VarintTypedArbitraryObject, AnyPackedTypeTagBytePrefix,
}

// Encoding is a typed plan node. The set of implementations is closed.
type Encoding interface {
	Name() Name
	isEncoding()
}

// Integers.

// BoundedMultiple8Bits stores (value / Multiplier) - ceil(Minimum / Multiplier)
// in one byte.
type BoundedMultiple8Bits struct {
	Minimum    int64
	Maximum    int64
	Multiplier uint64
}

// FloorMultiple stores (value / Multiplier) - ceil(Minimum / Multiplier) as a
// varint.
type FloorMultiple struct {
	Minimum    int64
	Multiplier uint64
}

// RoofMultipleMirror stores floor(Maximum / Multiplier) - (value / Multiplier)
// as a varint.
type RoofMultipleMirror struct {
	Maximum    int64
	Multiplier uint64
}

// ArbitraryMultipleZigzag stores value / Multiplier as a zigzag varint.
type ArbitraryMultipleZigzag struct {
	Multiplier uint64
}

// Reals.

// DoubleVarint stores a real as zigzag digits followed by the decimal point
// position.
type DoubleVarint struct{}

// Enumerations.

// ByteChoice stores the index of the value among Choices in one byte.
type ByteChoice struct{ Choices []any }

// LargeChoice stores the index of the value among Choices as a varint.
type LargeChoice struct{ Choices []any }

// TopLevelByteChoice stores nothing for the first choice and index-1 in one
// byte otherwise. Only valid at the top of a document.
type TopLevelByteChoice struct{ Choices []any }

// Const stores nothing.
type Const struct{ Value any }

// Strings.

// UTF8StringNoLength stores exactly Size code points without a length.
type UTF8NoLength struct{ Size uint64 }

// FloorVarintPrefixString stores len-Minimum+1 as a varint prefix.
type FloorVarintPrefixString struct{ Minimum uint64 }

// RoofVarintPrefixString stores Maximum-len+1 as a varint prefix.
type RoofVarintPrefixString struct{ Maximum uint64 }

// Bounded8BitPrefixString stores len-Minimum+1 as a one byte prefix.
type Bounded8BitPrefixString struct {
	Minimum uint64
	Maximum uint64
}

// RFC3339Date stores a full-date as a 16-bit year, a month byte and a day byte.
type RFC3339Date struct{}

// PrefixVarintLengthString stores byte length+1 as a varint prefix, or 0 and
// a back-reference.
type PrefixVarintLengthString struct{}

// Arrays.

// FixedArray holds exactly Size items and stores no length.
type FixedArray struct {
	Size            uint64
	Encoding        Encoding
	PrefixEncodings []Encoding
}

// Bounded8BitsArray stores len-Minimum in one byte.
type Bounded8BitsArray struct {
	Minimum         uint64
	Maximum         uint64
	Encoding        Encoding
	PrefixEncodings []Encoding
}

// FloorArray stores len-Minimum as a varint.
type FloorArray struct {
	Minimum         uint64
	Encoding        Encoding
	PrefixEncodings []Encoding
}

// RoofArray stores Maximum-len as a varint.
type RoofArray struct {
	Maximum         uint64
	Encoding        Encoding
	PrefixEncodings []Encoding
}

// Objects.

// FixedObject holds exactly Size entries and stores no size.
type FixedObject struct {
	Size        uint64
	KeyEncoding Encoding
	Encoding    Encoding
}

// VarintObject stores the number of entries as a varint.
type VarintObject struct {
	KeyEncoding Encoding
	Encoding    Encoding
}

// Any.

// AnyPacked stores a type tag byte followed by a generic encoding of the
// value.
type AnyPacked struct{}

func (BoundedMultiple8Bits) Name() Name     { return BoundedMultiple8BitsEnumFixed }
func (FloorMultiple) Name() Name            { return FloorMultipleEnumVarint }
func (RoofMultipleMirror) Name() Name       { return RoofMultipleMirrorEnumVarint }
func (ArbitraryMultipleZigzag) Name() Name  { return ArbitraryMultipleZigzagVarint }
func (DoubleVarint) Name() Name             { return DoubleVarintTuple }
func (ByteChoice) Name() Name               { return ByteChoiceIndex }
func (LargeChoice) Name() Name              { return LargeChoiceIndex }
func (TopLevelByteChoice) Name() Name       { return TopLevelByteChoiceIndex }
func (Const) Name() Name                    { return ConstNone }
func (UTF8NoLength) Name() Name             { return UTF8StringNoLength }
func (FloorVarintPrefixString) Name() Name  { return FloorVarintPrefixUTF8StringShared }
func (RoofVarintPrefixString) Name() Name   { return RoofVarintPrefixUTF8StringShared }
func (Bounded8BitPrefixString) Name() Name  { return Bounded8BitPrefixUTF8StringShared }
func (RFC3339Date) Name() Name              { return RFC3339DateIntegerTriplet }
func (PrefixVarintLengthString) Name() Name { return PrefixVarintLengthStringShared }
func (FixedArray) Name() Name               { return FixedTypedArray }
func (Bounded8BitsArray) Name() Name        { return Bounded8BitsTypedArray }
func (FloorArray) Name() Name               { return FloorTypedArray }
func (RoofArray) Name() Name                { return RoofTypedArray }
func (FixedObject) Name() Name              { return FixedTypedArbitraryObject }
func (VarintObject) Name() Name             { return VarintTypedArbitraryObject }
func (AnyPacked) Name() Name                { return AnyPackedTypeTagBytePrefix }

func (BoundedMultiple8Bits) isEncoding()     {}
func (FloorMultiple) isEncoding()            {}
func (RoofMultipleMirror) isEncoding()       {}
func (ArbitraryMultipleZigzag) isEncoding()  {}
func (DoubleVarint) isEncoding()             {}
func (ByteChoice) isEncoding()               {}
func (LargeChoice) isEncoding()              {}
func (TopLevelByteChoice) isEncoding()       {}
func (Const) isEncoding()                    {}
func (UTF8NoLength) isEncoding()             {}
func (FloorVarintPrefixString) isEncoding()  {}
func (RoofVarintPrefixString) isEncoding()   {}
func (Bounded8BitPrefixString) isEncoding()  {}
func (RFC3339Date) isEncoding()              {}
func (PrefixVarintLengthString) isEncoding() {}
func (FixedArray) isEncoding()               {}
func (Bounded8BitsArray) isEncoding()        {}
func (FloorArray) isEncoding()               {}
func (RoofArray) isEncoding()                {}
func (FixedObject) isEncoding()              {}
func (VarintObject) isEncoding()             {}
func (AnyPacked) isEncoding()                {}

package encode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"dolicat/internal/condition"
	"dolicat/internal/product"
)

// Snapshot layout: magic "DCS", a version byte, then every field of the
// record in declaration order, little-endian. Optional fields are preceded by
// a presence byte, strings and times by a uint32 length. Extras are written
// in ExtraFields order whatever the profile, so a snapshot is readable under
// any profile.
var snapshotMagic = []byte("DCS")

const snapshotVersion = 1

var ErrBadSnapshot = errors.New("malformed snapshot")

func MarshalSnapshot(r product.Record) ([]byte, error) {
	w := &snapshotWriter{}
	w.buf.Write(snapshotMagic)
	w.buf.WriteByte(snapshotVersion)

	w.u32(r.RowID)
	w.str(r.Reference)
	w.str(r.Label)
	w.optTime(r.DateCreation)
	w.optTime(r.DateModification)
	w.optStr(r.Description)
	w.optStr(r.NotePublic)
	w.optStr(r.NotePrivate)
	w.optStr(r.Barcode)
	w.optF64(r.Poids)
	w.optI8(r.PoidsUnits)
	w.optF64(r.Longueur)
	w.optI8(r.LongueurUnits)
	w.optF64(r.Largeur)
	w.optI8(r.LargeurUnits)
	w.optF64(r.Epaisseur)
	w.optI8(r.EpaisseurUnits)
	w.f64(r.Price)
	w.optF64(r.PriceMin)
	w.optStr(r.PriceBaseType)
	w.optF64(r.CostPrice)
	w.optI32(r.Stock)
	w.flag(r.ToBuy)
	w.flag(r.ToSell)

	for _, f := range product.ExtraFields() {
		switch v := f.Value(&r.Extras).(type) {
		case *string:
			w.optStr(v)
		case *bool:
			w.optBool(v)
		case *uint32:
			w.present(v != nil)
			if v != nil {
				w.u32(*v)
			}
		case *float64:
			w.optF64(v)
		case *time.Time:
			w.optTime(v)
		case *condition.Condition:
			w.present(v != nil)
			if v != nil {
				w.buf.WriteByte(byte(*v))
			}
		}
	}

	if w.err != nil {
		return nil, w.err
	}
	return w.buf.Bytes(), nil
}

func UnmarshalSnapshot(data []byte) (product.Record, error) {
	if len(data) < len(snapshotMagic)+1 || !bytes.Equal(data[:len(snapshotMagic)], snapshotMagic) {
		return product.Record{}, ErrBadSnapshot
	}
	if v := data[len(snapshotMagic)]; v != snapshotVersion {
		return product.Record{}, fmt.Errorf("%w: unsupported version %d", ErrBadSnapshot, v)
	}
	rd := &snapshotReader{r: bytes.NewReader(data[len(snapshotMagic)+1:])}

	var r product.Record
	r.RowID = rd.u32()
	r.Reference = rd.str()
	r.Label = rd.str()
	r.DateCreation = rd.optTime()
	r.DateModification = rd.optTime()
	r.Description = rd.optStr()
	r.NotePublic = rd.optStr()
	r.NotePrivate = rd.optStr()
	r.Barcode = rd.optStr()
	r.Poids = rd.optF64()
	r.PoidsUnits = rd.optI8()
	r.Longueur = rd.optF64()
	r.LongueurUnits = rd.optI8()
	r.Largeur = rd.optF64()
	r.LargeurUnits = rd.optI8()
	r.Epaisseur = rd.optF64()
	r.EpaisseurUnits = rd.optI8()
	r.Price = rd.f64()
	r.PriceMin = rd.optF64()
	r.PriceBaseType = rd.optStr()
	r.CostPrice = rd.optF64()
	r.Stock = rd.optI32()
	r.ToBuy = rd.flag()
	r.ToSell = rd.flag()

	for _, f := range product.ExtraFields() {
		switch f.Value(&r.Extras).(type) {
		case *string:
			f.Set(&r.Extras, rd.optStr())
		case *bool:
			f.Set(&r.Extras, rd.optBool())
		case *uint32:
			if rd.present() {
				v := rd.u32()
				f.Set(&r.Extras, &v)
			}
		case *float64:
			f.Set(&r.Extras, rd.optF64())
		case *time.Time:
			f.Set(&r.Extras, rd.optTime())
		case *condition.Condition:
			if rd.present() {
				c := condition.Condition(rd.u8())
				if rd.err == nil && !c.Valid() {
					rd.err = fmt.Errorf("%w: condition %d", ErrBadSnapshot, c)
				}
				f.Set(&r.Extras, &c)
			}
		}
	}

	if rd.err != nil {
		return product.Record{}, rd.err
	}
	if rd.r.Len() != 0 {
		return product.Record{}, fmt.Errorf("%w: %d trailing bytes", ErrBadSnapshot, rd.r.Len())
	}
	return r, nil
}

type snapshotWriter struct {
	buf bytes.Buffer
	err error
}

func (w *snapshotWriter) u32(v uint32) {
	w.buf.Write(binary.LittleEndian.AppendUint32(nil, v))
}

func (w *snapshotWriter) f64(v float64) {
	w.buf.Write(binary.LittleEndian.AppendUint64(nil, math.Float64bits(v)))
}

func (w *snapshotWriter) flag(v bool) {
	if v {
		w.buf.WriteByte(1)
		return
	}
	w.buf.WriteByte(0)
}

func (w *snapshotWriter) present(ok bool) {
	w.flag(ok)
}

func (w *snapshotWriter) blob(b []byte) {
	w.u32(uint32(len(b)))
	w.buf.Write(b)
}

func (w *snapshotWriter) str(s string) {
	w.blob([]byte(s))
}

func (w *snapshotWriter) optStr(v *string) {
	w.present(v != nil)
	if v != nil {
		w.str(*v)
	}
}

func (w *snapshotWriter) optF64(v *float64) {
	w.present(v != nil)
	if v != nil {
		w.f64(*v)
	}
}

func (w *snapshotWriter) optI8(v *int8) {
	w.present(v != nil)
	if v != nil {
		w.buf.WriteByte(byte(*v))
	}
}

func (w *snapshotWriter) optI32(v *int32) {
	w.present(v != nil)
	if v != nil {
		w.u32(uint32(*v))
	}
}

func (w *snapshotWriter) optBool(v *bool) {
	w.present(v != nil)
	if v != nil {
		w.flag(*v)
	}
}

func (w *snapshotWriter) optTime(v *time.Time) {
	w.present(v != nil)
	if v == nil {
		return
	}
	b, err := v.MarshalBinary()
	if err != nil {
		if w.err == nil {
			w.err = err
		}
		return
	}
	w.blob(b)
}

type snapshotReader struct {
	r   *bytes.Reader
	err error
}

func (rd *snapshotReader) read(n int) []byte {
	if rd.err != nil {
		return nil
	}
	if n > rd.r.Len() {
		rd.err = fmt.Errorf("%w: %v", ErrBadSnapshot, io.ErrUnexpectedEOF)
		return nil
	}
	b := make([]byte, n)
	_, _ = rd.r.Read(b)
	return b
}

func (rd *snapshotReader) u8() byte {
	b := rd.read(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (rd *snapshotReader) u32() uint32 {
	b := rd.read(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (rd *snapshotReader) f64() float64 {
	b := rd.read(8)
	if b == nil {
		return 0
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

func (rd *snapshotReader) flag() bool {
	return rd.u8() == 1
}

func (rd *snapshotReader) present() bool {
	return rd.flag() && rd.err == nil
}

func (rd *snapshotReader) blob() []byte {
	n := rd.u32()
	return rd.read(int(n))
}

func (rd *snapshotReader) str() string {
	return string(rd.blob())
}

func (rd *snapshotReader) optStr() *string {
	if !rd.present() {
		return nil
	}
	s := rd.str()
	return &s
}

func (rd *snapshotReader) optF64() *float64 {
	if !rd.present() {
		return nil
	}
	v := rd.f64()
	return &v
}

func (rd *snapshotReader) optI8() *int8 {
	if !rd.present() {
		return nil
	}
	v := int8(rd.u8())
	return &v
}

func (rd *snapshotReader) optI32() *int32 {
	if !rd.present() {
		return nil
	}
	v := int32(rd.u32())
	return &v
}

func (rd *snapshotReader) optBool() *bool {
	if !rd.present() {
		return nil
	}
	v := rd.flag()
	return &v
}

func (rd *snapshotReader) optTime() *time.Time {
	if !rd.present() {
		return nil
	}
	b := rd.blob()
	if rd.err != nil {
		return nil
	}
	var t time.Time
	if err := t.UnmarshalBinary(b); err != nil {
		rd.err = fmt.Errorf("%w: %v", ErrBadSnapshot, err)
		return nil
	}
	return &t
}

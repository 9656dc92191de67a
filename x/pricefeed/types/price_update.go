package types

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

const (
	verificationTagPartial = 0
	verificationTagFull    = 1

	priceMessageSize = FeedIDLength + 8 + 8 + 4 + 8 + 8 + 8 + 8
	// full-verification layout; partial carries one extra signature-count byte
	priceUpdateSizeFull = 8 + 32 + 1 + priceMessageSize + 8
)

// PriceUpdateDiscriminator prefixes every encoded price update account.
var PriceUpdateDiscriminator = accountDiscriminator("PriceUpdateV2")

func accountDiscriminator(name string) [8]byte {
	var d [8]byte
	sum := sha256.Sum256([]byte("account:" + name))
	copy(d[:], sum[:8])
	return d
}

// PriceUpdate is the typed view of an account written by the signed-update
// receiver. Only DecodePriceUpdate turns raw account bytes into one.
type PriceUpdate struct {
	WriteAuthority [32]byte
	Verification   VerificationLevel
	Message        PriceRecord
	PostedSlot     uint64
}

// Validate checks the update's structural invariants.
func (u PriceUpdate) Validate() error {
	if err := u.Message.Validate(); err != nil {
		return ErrInvalidPriceUpdate.Wrap(err.Error())
	}
	return nil
}

// LatestPriceUpdate implements RecordSource for the single record the account holds.
func (u PriceUpdate) LatestPriceUpdate(feed FeedID) (PriceUpdate, bool) {
	if !u.Message.FeedID.Equal(feed) {
		return PriceUpdate{}, false
	}
	return u, true
}

// Marshal encodes the update in account layout.
func (u PriceUpdate) Marshal() []byte {
	bz := make([]byte, 0, priceUpdateSizeFull+1)
	bz = append(bz, PriceUpdateDiscriminator[:]...)
	bz = append(bz, u.WriteAuthority[:]...)
	if u.Verification.Full {
		bz = append(bz, verificationTagFull)
	} else {
		bz = append(bz, verificationTagPartial, u.Verification.NumSignatures)
	}

	m := u.Message
	bz = append(bz, m.FeedID[:]...)
	bz = binary.LittleEndian.AppendUint64(bz, uint64(m.Price))
	bz = binary.LittleEndian.AppendUint64(bz, m.Conf)
	bz = binary.LittleEndian.AppendUint32(bz, uint32(m.Exponent))
	bz = binary.LittleEndian.AppendUint64(bz, uint64(m.PublishTime))
	bz = binary.LittleEndian.AppendUint64(bz, uint64(m.PrevPublishTime))
	bz = binary.LittleEndian.AppendUint64(bz, uint64(m.EMAPrice))
	bz = binary.LittleEndian.AppendUint64(bz, m.EMAConf)
	bz = binary.LittleEndian.AppendUint64(bz, u.PostedSlot)
	return bz
}

// DecodePriceUpdate checks the discriminator and layout of raw account data
// and returns the validated view. The input slice is never modified.
func DecodePriceUpdate(bz []byte) (PriceUpdate, error) {
	var u PriceUpdate
	r := accountReader{buf: bz}

	var disc [8]byte
	r.read(disc[:])
	if r.err == nil && disc != PriceUpdateDiscriminator {
		return u, ErrInvalidPriceUpdate.Wrap("account discriminator mismatch")
	}
	r.read(u.WriteAuthority[:])

	switch tag := r.u8(); tag {
	case verificationTagPartial:
		u.Verification = VerificationPartial(r.u8())
	case verificationTagFull:
		u.Verification = VerificationFull
	default:
		return u, ErrInvalidPriceUpdate.Wrapf("unknown verification level tag %d", tag)
	}

	r.read(u.Message.FeedID[:])
	u.Message.Price = int64(r.u64())
	u.Message.Conf = r.u64()
	u.Message.Exponent = int32(r.u32())
	u.Message.PublishTime = int64(r.u64())
	u.Message.PrevPublishTime = int64(r.u64())
	u.Message.EMAPrice = int64(r.u64())
	u.Message.EMAConf = r.u64()
	u.PostedSlot = r.u64()

	if r.err != nil {
		return PriceUpdate{}, ErrInvalidPriceUpdate.Wrap(r.err.Error())
	}
	if r.off != len(bz) {
		return PriceUpdate{}, ErrInvalidPriceUpdate.Wrapf("%d trailing bytes", len(bz)-r.off)
	}
	if err := u.Validate(); err != nil {
		return PriceUpdate{}, err
	}
	return u, nil
}

// accountReader is a bounds-checked little-endian cursor. The first short read
// sticks in err and turns later reads into no-ops.
type accountReader struct {
	buf []byte
	off int
	err error
}

func (r *accountReader) next(n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.buf)-r.off < n {
		r.err = fmt.Errorf("account data truncated at offset %d: need %d bytes, have %d", r.off, n, len(r.buf)-r.off)
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *accountReader) read(dst []byte) {
	if b := r.next(len(dst)); b != nil {
		copy(dst, b)
	}
}

func (r *accountReader) u8() uint8 {
	if b := r.next(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *accountReader) u32() uint32 {
	if b := r.next(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (r *accountReader) u64() uint64 {
	if b := r.next(8); b != nil {
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

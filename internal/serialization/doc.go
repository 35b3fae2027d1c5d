// Package serialization saves and restores training checkpoints: named
// parameter values plus optional optimizer state.
//
// # File layout
//
//	offset  size  field
//	0x00    4     magic "SGRD"
//	0x04    4     format version, uint32 little-endian
//	0x08    4     flags, uint32 little-endian
//	0x0C    8     header size N, uint64 little-endian
//	0x14    N     header, JSON (see Header)
//	...     8*k   data section, k float64 values little-endian
//	...     32    SHA-256 of every preceding byte
//
// Each header entry names one value and gives its byte offset in the data
// section. Parameters come first, then optimizer state, each sorted by
// name, so the same checkpoint always encodes to the same data section.
//
// # Example
//
//	ck := serialization.New(map[string]*autodiff.Scalar{"w": w, "b": b})
//	ck.Step, ck.Loss = step, loss.Data()
//	if err := serialization.Save("run.sgrd", ck); err != nil {
//	    return err
//	}
//
//	ck, err := serialization.Load("run.sgrd")
//	if err != nil {
//	    return err
//	}
//	err = ck.Restore(map[string]*autodiff.Scalar{"w": w, "b": b})
package serialization

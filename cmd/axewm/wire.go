package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// messageType and the frame layout mirror internal/ipc's wire format
// exactly (the "i3-ipc" magic, length, and type header framing);
// duplicated here, unexported, because a CLI client is logically a
// separate program from the daemon it talks to, the same way i3-msg
// ships independently of i3.
type messageType uint32

const typeCommand messageType = 0

var clientMagic = []byte("i3-ipc")

func writeMessage(w io.Writer, typ messageType, payload []byte) error {
	var hdr bytes.Buffer
	hdr.Write(clientMagic)
	if err := binary.Write(&hdr, binary.LittleEndian, uint32(len(payload))); err != nil {
		return err
	}
	if err := binary.Write(&hdr, binary.LittleEndian, uint32(typ)); err != nil {
		return err
	}
	if _, err := w.Write(hdr.Bytes()); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func readMessage(r io.Reader) (messageType, []byte, error) {
	var hdr [14]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, nil, err
	}
	if !bytes.Equal(hdr[:6], clientMagic) {
		return 0, nil, fmt.Errorf("ipc client: bad magic %q", hdr[:6])
	}
	length := binary.LittleEndian.Uint32(hdr[6:10])
	typ := messageType(binary.LittleEndian.Uint32(hdr[10:14]))
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, err
	}
	return typ, payload, nil
}

package cpu

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
)

// Image is a program image: an origin address and the words placed there.
type Image struct {
	Origin uint16
	Words  []uint16
}

// ReadImage reads a big-endian image: the origin word, followed by the
// words to place at the origin. At most MEMORY_SIZE-origin words are read;
// anything after that, and any odd trailing byte, is ignored.
func ReadImage(input io.Reader) (img Image, err error) {
	rd := bufio.NewReader(input)

	var word [2]byte
	_, err = io.ReadFull(rd, word[:])
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			err = ErrImageShort
		}
		return
	}
	img.Origin = binary.BigEndian.Uint16(word[:])

	limit := MEMORY_SIZE - int(img.Origin)
	for len(img.Words) < limit {
		_, err = io.ReadFull(rd, word[:])
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				err = nil
			}
			return
		}
		img.Words = append(img.Words, binary.BigEndian.Uint16(word[:]))
	}

	return
}

// WriteTo writes the image in big-endian form.
func (img Image) WriteTo(output io.Writer) (n int64, err error) {
	wr := bufio.NewWriter(output)

	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, img.Origin)
	written, err := wr.Write(buf)
	n += int64(written)
	if err != nil {
		return
	}

	for _, word := range img.Words {
		binary.BigEndian.PutUint16(buf, word)
		written, err = wr.Write(buf)
		n += int64(written)
		if err != nil {
			return
		}
	}

	err = wr.Flush()
	return
}

// End returns the address one past the last word of the image.
func (img Image) End() int {
	return int(img.Origin) + len(img.Words)
}

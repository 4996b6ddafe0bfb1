package metadata

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// probeDuration determines the audio duration in milliseconds by parsing the
// container directly. Containers that cannot be verified fail; formats that
// resist cheap parsing (m4a) fall back to a bitrate estimate.
func probeDuration(path, ext string, size int64) (int64, error) {
	switch ext {
	case ".mp3":
		return probeMP3(path, size)
	case ".flac":
		return probeFLAC(path)
	case ".wav":
		return probeWAV(path, size)
	case ".ogg":
		return probeOgg(path, size)
	case ".m4a":
		// AAC in MP4 averages around 256 kbps.
		return estimateMillis(size, 256), nil
	default:
		return 0, fmt.Errorf("unsupported extension %q", ext)
	}
}

func estimateMillis(size int64, kbps int64) int64 {
	if kbps <= 0 {
		return 0
	}
	return size * 8 / kbps
}

// probeMP3 samples up to 100 frame headers and projects the duration from the
// average bitrate over the whole file.
func probeMP3(path string, size int64) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	var (
		frames       int64
		bitrateTotal int64
	)
	buf := make([]byte, 4)
	for frames < 100 {
		if _, err := io.ReadFull(file, buf); err != nil {
			break
		}
		if buf[0] != 0xFF || buf[1]&0xE0 != 0xE0 {
			// Resync one byte at a time.
			if _, err := file.Seek(-3, io.SeekCurrent); err != nil {
				break
			}
			continue
		}

		version := (buf[1] >> 3) & 0x03
		bitrateIndex := (buf[2] >> 4) & 0x0F
		sampleRateIndex := (buf[2] >> 2) & 0x03

		bitrate := mp3Bitrate(version, bitrateIndex)
		sampleRate := mp3SampleRate(version, sampleRateIndex)
		if bitrate == 0 || sampleRate == 0 {
			continue
		}

		frames++
		bitrateTotal += int64(bitrate)

		padding := int((buf[2] >> 1) & 0x01)
		frameSize := (144*bitrate*1000)/sampleRate + padding
		if frameSize > 4 {
			if _, err := file.Seek(int64(frameSize-4), io.SeekCurrent); err != nil {
				break
			}
		}
	}

	if frames == 0 {
		return 0, errors.New("no mp3 frames found")
	}
	return estimateMillis(size, bitrateTotal/frames), nil
}

func mp3Bitrate(version, index byte) int {
	if index >= 15 {
		return 0
	}
	// Layer III tables.
	v1 := [16]int{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0}
	v2 := [16]int{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0}
	if version == 3 {
		return v1[index]
	}
	return v2[index]
}

func mp3SampleRate(version, index byte) int {
	if index >= 3 {
		return 0
	}
	switch version {
	case 3:
		return [3]int{44100, 48000, 32000}[index]
	case 2:
		return [3]int{22050, 24000, 16000}[index]
	case 0:
		return [3]int{11025, 12000, 8000}[index]
	}
	return 0
}

// probeFLAC reads the STREAMINFO block for the exact sample count.
func probeFLAC(path string) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	marker := make([]byte, 4)
	if _, err := io.ReadFull(file, marker); err != nil || string(marker) != "fLaC" {
		return 0, errors.New("not a flac stream")
	}

	for {
		header := make([]byte, 4)
		if _, err := io.ReadFull(file, header); err != nil {
			return 0, errors.New("flac streaminfo missing")
		}
		blockType := header[0] & 0x7F
		blockSize := int(header[1])<<16 | int(header[2])<<8 | int(header[3])

		if blockType == 0 {
			if blockSize < 18 {
				return 0, errors.New("flac streaminfo truncated")
			}
			info := make([]byte, blockSize)
			if _, err := io.ReadFull(file, info); err != nil {
				return 0, err
			}
			sampleRate := int64(info[10])<<12 | int64(info[11])<<4 | int64(info[12])>>4
			totalSamples := int64(info[13]&0x0F)<<32 | int64(info[14])<<24 | int64(info[15])<<16 | int64(info[16])<<8 | int64(info[17])
			if sampleRate <= 0 || totalSamples <= 0 {
				return 0, errors.New("flac streaminfo incomplete")
			}
			return totalSamples * 1000 / sampleRate, nil
		}

		if _, err := file.Seek(int64(blockSize), io.SeekCurrent); err != nil {
			return 0, err
		}
		if header[0]&0x80 != 0 {
			return 0, errors.New("flac streaminfo missing")
		}
	}
}

// probeWAV reads the fmt chunk byte rate and sizes the data chunk against it.
func probeWAV(path string, size int64) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	riff := make([]byte, 12)
	if _, err := io.ReadFull(file, riff); err != nil || string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return 0, errors.New("not a wav stream")
	}

	var byteRate uint32
	var dataSize int64
	for {
		chunk := make([]byte, 8)
		if _, err := io.ReadFull(file, chunk); err != nil {
			break
		}
		chunkID := string(chunk[0:4])
		chunkSize := binary.LittleEndian.Uint32(chunk[4:8])

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return 0, errors.New("wav fmt chunk truncated")
			}
			fmtData := make([]byte, chunkSize)
			if _, err := io.ReadFull(file, fmtData); err != nil {
				return 0, err
			}
			byteRate = binary.LittleEndian.Uint32(fmtData[8:12])
		case "data":
			dataSize = int64(chunkSize)
			if _, err := file.Seek(int64(chunkSize), io.SeekCurrent); err != nil {
				break
			}
		default:
			if _, err := file.Seek(int64(chunkSize), io.SeekCurrent); err != nil {
				break
			}
		}
		if byteRate > 0 && dataSize > 0 {
			break
		}
	}

	if byteRate == 0 {
		return 0, errors.New("wav fmt chunk missing")
	}
	if dataSize == 0 {
		dataSize = size - 44
	}
	if dataSize <= 0 {
		return 0, nil
	}
	return dataSize * 1000 / int64(byteRate), nil
}

// probeOgg scans the tail for the last page's granule position and divides by
// the sample rate pulled from the identification header.
func probeOgg(path string, size int64) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	head := make([]byte, 4096)
	n, _ := file.Read(head)
	head = head[:n]
	if len(head) < 27 || string(head[0:4]) != "OggS" {
		return 0, errors.New("not an ogg stream")
	}

	sampleRate := int64(44100)
	if idx := bytes.Index(head, []byte("\x01vorbis")); idx >= 0 && idx+16 <= len(head) {
		sampleRate = int64(binary.LittleEndian.Uint32(head[idx+12 : idx+16]))
	} else if bytes.Contains(head, []byte("OpusHead")) {
		// Opus granule positions always count 48 kHz samples.
		sampleRate = 48000
	}
	if sampleRate <= 0 {
		return 0, errors.New("ogg sample rate missing")
	}

	tailSize := int64(64 * 1024)
	if tailSize > size {
		tailSize = size
	}
	if _, err := file.Seek(-tailSize, io.SeekEnd); err != nil {
		return 0, err
	}
	tail := make([]byte, tailSize)
	read, _ := io.ReadFull(file, tail)
	tail = tail[:read]

	for i := len(tail) - 27; i >= 0; i-- {
		if string(tail[i:i+4]) == "OggS" {
			granule := int64(binary.LittleEndian.Uint64(tail[i+6 : i+14]))
			if granule <= 0 {
				break
			}
			return granule * 1000 / sampleRate, nil
		}
	}
	return 0, errors.New("ogg granule position missing")
}

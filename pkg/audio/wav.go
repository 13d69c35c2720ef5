package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// wavHeader is the canonical 44-byte RIFF/WAVE header for PCM data.
type wavHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // file size - 8
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32 // SampleRate * NumChannels * BitsPerSample / 8
	BlockAlign    uint16 // NumChannels * BitsPerSample / 8
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32
}

// WAVInfo describes the format of decoded WAV data.
type WAVInfo struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// EncodeWAV wraps raw little-endian int16 PCM bytes in a WAV container.
func EncodeWAV(pcm []byte, sampleRate, channels int) ([]byte, error) {
	if len(pcm) == 0 {
		return nil, fmt.Errorf("audio: cannot encode empty PCM data")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("audio: sample rate must be positive, got %d", sampleRate)
	}
	if channels <= 0 {
		channels = 1
	}

	const bitsPerSample = 16
	dataSize := uint32(len(pcm))
	header := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   uint16(channels),
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * uint32(channels) * bitsPerSample / 8,
		BlockAlign:    uint16(channels) * bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, 44+len(pcm)))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("audio: write WAV header: %w", err)
	}
	buf.Write(pcm)
	return buf.Bytes(), nil
}

// DecodeWAV extracts the raw PCM payload and format info from WAV data.
// Only uncompressed 16-bit PCM is supported; mono and stereo both pass
// through (playback backends handle channel layout themselves).
func DecodeWAV(data []byte) ([]byte, WAVInfo, error) {
	if len(data) < 44 {
		return nil, WAVInfo{}, fmt.Errorf("audio: WAV data too short: %d bytes", len(data))
	}

	var header wavHeader
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &header); err != nil {
		return nil, WAVInfo{}, fmt.Errorf("audio: read WAV header: %w", err)
	}
	if string(header.ChunkID[:]) != "RIFF" || string(header.Format[:]) != "WAVE" {
		return nil, WAVInfo{}, fmt.Errorf("audio: not a RIFF/WAVE file")
	}
	if string(header.Subchunk1ID[:]) != "fmt " {
		return nil, WAVInfo{}, fmt.Errorf("audio: missing fmt chunk")
	}
	if header.AudioFormat != 1 {
		return nil, WAVInfo{}, fmt.Errorf("audio: unsupported audio format %d (only PCM)", header.AudioFormat)
	}
	if header.BitsPerSample != 16 {
		return nil, WAVInfo{}, fmt.Errorf("audio: unsupported bit depth %d (only 16-bit)", header.BitsPerSample)
	}

	info := WAVInfo{
		SampleRate:    int(header.SampleRate),
		Channels:      int(header.NumChannels),
		BitsPerSample: int(header.BitsPerSample),
	}

	// The fixed 44-byte layout covers files whose fmt chunk is the standard
	// 16 bytes and whose data chunk follows immediately. Piper, Edge TTS and
	// espeak-ng all produce this layout. Anything else (LIST chunks, etc.) is
	// located by scanning for the data chunk.
	if string(header.Subchunk2ID[:]) == "data" {
		end := 44 + int(header.Subchunk2Size)
		if end > len(data) {
			end = len(data)
		}
		return data[44:end], info, nil
	}

	payload, err := findDataChunk(data)
	if err != nil {
		return nil, WAVInfo{}, err
	}
	return payload, info, nil
}

// findDataChunk walks the RIFF chunk list starting after the fmt chunk and
// returns the payload of the first "data" chunk.
func findDataChunk(data []byte) ([]byte, error) {
	off := 12 // past "RIFF" size "WAVE"
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		if id == "data" {
			start := off + 8
			end := start + size
			if end > len(data) {
				end = len(data)
			}
			return data[start:end], nil
		}
		off += 8 + size
		if size%2 == 1 {
			off++ // RIFF chunks are word-aligned
		}
	}
	return nil, fmt.Errorf("audio: missing data chunk")
}

// WAVDuration returns the duration of WAV data in seconds.
func WAVDuration(data []byte) (float64, error) {
	pcm, info, err := DecodeWAV(data)
	if err != nil {
		return 0, err
	}
	bytesPerSecond := info.SampleRate * info.Channels * info.BitsPerSample / 8
	if bytesPerSecond == 0 {
		return 0, fmt.Errorf("audio: invalid WAV format %+v", info)
	}
	return float64(len(pcm)) / float64(bytesPerSecond), nil
}

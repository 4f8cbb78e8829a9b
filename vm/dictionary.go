package vm

import (
	"bytes"
	"encoding/binary"
)

// DictionaryHeader is the fixed-size header preceding a story's word
// entries: the word-separator ("input code") list, each entry's byte
// length, and the entry count.
type DictionaryHeader struct {
	InputCodes  []uint8
	EntryLength uint8
	Count       int16
}

// DictionaryEntry is one parsed word-table entry: its absolute address,
// its raw encoded (still-ZSCII) word bytes, and its trailing data bytes
// (grammar/flag bytes, meaning depends on the game). Adapted from
// dictionary.DictionaryEntry with the decoded-text field dropped - this
// package has no ZSCII decoder (see the vm memory surface design note),
// and Find only ever needs the encoded bytes to match a parsed input
// word against.
type DictionaryEntry struct {
	Address     uint16
	EncodedWord []uint8
	Data        []uint8
}

// Dictionary is a parsed dictionary table.
type Dictionary struct {
	Header  DictionaryHeader
	Entries []DictionaryEntry
}

// ParseDictionary reads the dictionary table at v's header-declared
// DictionaryBase. Adapted from dictionary.ParseDictionary.
func (v *VM) ParseDictionary() Dictionary {
	base := uint32(v.header.DictionaryBase)
	mem := v.storyData

	numInputCodes := mem[base]
	header := DictionaryHeader{
		InputCodes:  mem[base+1 : base+1+uint32(numInputCodes)],
		EntryLength: mem[base+1+uint32(numInputCodes)],
		Count:       int16(binary.BigEndian.Uint16(mem[base+2+uint32(numInputCodes) : base+4+uint32(numInputCodes)])),
	}

	encodedWordLength := uint32(4)
	if v.header.Version > 3 {
		encodedWordLength = 6
	}

	entryPtr := base + 4 + uint32(numInputCodes)
	entries := make([]DictionaryEntry, header.Count)
	for i := 0; i < int(header.Count); i++ {
		entries[i] = DictionaryEntry{
			Address:     uint16(entryPtr),
			EncodedWord: mem[entryPtr : entryPtr+encodedWordLength],
			Data:        mem[entryPtr+encodedWordLength : entryPtr+uint32(header.EntryLength)],
		}
		entryPtr += uint32(header.EntryLength)
	}

	return Dictionary{Header: header, Entries: entries}
}

// Find returns the address of the entry whose encoded word matches
// encodedWord exactly, or 0 if there is no such entry.
func (d Dictionary) Find(encodedWord []uint8) uint16 {
	for _, e := range d.Entries {
		if bytes.Equal(e.EncodedWord, encodedWord) {
			return e.Address
		}
	}
	return 0
}

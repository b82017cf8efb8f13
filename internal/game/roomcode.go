package game

import "crypto/rand"

// Room codes are short so players can share them out loud. The alphabet
// drops lookalike characters (0/O, 1/I/L).
const roomCodeAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"
const roomCodeLength = 6

func newRoomCode() string {
	buf := make([]byte, roomCodeLength)
	rand.Read(buf)
	for i := range buf {
		buf[i] = roomCodeAlphabet[int(buf[i])%len(roomCodeAlphabet)]
	}
	return string(buf)
}

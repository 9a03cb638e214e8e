package utils

import (
	"math/rand"
	"strconv"
	"strings"
	"time"
)

const queueIDChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// NewQueueID generates a queue identifier in the format the QR payloads
// already circulating use: ten random alphanumerics, a dash, and the unix
// timestamp in milliseconds.
func NewQueueID() string {
	var b strings.Builder
	for i := 0; i < 10; i++ {
		b.WriteByte(queueIDChars[rand.Intn(len(queueIDChars))])
	}
	return b.String() + "-" + strconv.FormatInt(time.Now().UnixMilli(), 10)
}

// CategoryID derives a category identifier from its queue and normalized
// name: whitespace runs become dashes and the result is lowercased.
func CategoryID(queueID, name string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(name), "-"))
	return queueID + "-" + normalized
}

package utils

import (
	"math/rand"
	"os"
	"time"

	"github.com/Luismorlan/eventmux/utils/dotenv"
)

const letters = "abcdefghijklmnopqrstuvwxyz"

var random = rand.New(rand.NewSource(time.Now().UnixNano()))

// ContainsString returns true iff the provided string slice hay contains string
// needle.
func ContainsString(hay []string, needle string) bool {
	for _, str := range hay {
		if str == needle {
			return true
		}
	}
	return false
}

// UniqueUints returns ids with duplicates removed, keeping first occurrence
// order.
func UniqueUints(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	res := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		res = append(res, id)
	}
	return res
}

// RandomAlphabetString returns a lower case string of length n.
func RandomAlphabetString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[random.Intn(len(letters))]
	}
	return string(b)
}

func IsProdEnv() bool {
	return os.Getenv(dotenv.EnvName) == dotenv.ProdEnv
}

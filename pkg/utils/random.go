package utils

import (
	"crypto/rand"
	"encoding/hex"
	"hash/fnv"
)

// GenerateID создает простой уникальный ID для подписчика
func GenerateID() string {
	b := make([]byte, 8) // 16 символов hex
	if _, err := rand.Read(b); err != nil {
		panic("failed to generate random ID: " + err.Error())
	}
	return hex.EncodeToString(b)
}

// StringToSeed превращает произвольную фразу в зерно генерации.
// Одна и та же фраза всегда даёт одно и то же зерно.
func StringToSeed(phrase string) int64 {
	h := fnv.New64a()
	h.Write([]byte(phrase))
	return int64(h.Sum64())
}

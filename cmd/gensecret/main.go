// Command gensecret prints random SECRET_KEY for the tokenauth service.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

const defaultSecretKeyBytesLen = 32

func main() {
	size := pflag.IntP("bytes", "n", defaultSecretKeyBytesLen, "Secret key length in bytes (at least 16)")
	asEnv := pflag.Bool("env", false, "Print as SECRET_KEY=... line to append to .env file")
	pflag.Parse()

	key, err := generate(*size)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error while generating secret key: %v\n", err)
		os.Exit(1)
	}

	if *asEnv {
		fmt.Printf("SECRET_KEY=%s\n", key)
		return
	}
	fmt.Println(key)
}

func generate(size int) (string, error) {
	if size < 16 {
		return "", fmt.Errorf("key of %d bytes is too short", size)
	}

	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

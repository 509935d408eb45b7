package main

import (
	"fmt"

	"github.com/nats-io/nkeys"
)

func publicKey(seed string) (string, error) {
	kp, err := nkeys.FromSeed([]byte(seed))
	if err != nil {
		return "", fmt.Errorf("parse signing seed: %w", err)
	}
	defer kp.Wipe()
	return kp.PublicKey()
}

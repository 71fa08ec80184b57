package krypto_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/willemschots/mailinglist/internal/errorz"
	"github.com/willemschots/mailinglist/internal/krypto"
)

type argon2Fixture struct {
	raw  string
	phc  string
	hash krypto.Argon2Hash
}

// argon2Fixtures are hashes as they can be found in the users table. Hashes
// provisioned by other tools may use different parameters.
func argon2Fixtures() map[string]argon2Fixture {
	return map[string]argon2Fixture{
		"default parameters": {
			raw: "reallyStrongPassword1",
			phc: "$argon2id$v=19$m=47104,t=1,p=1$J2m43fOwXcgPz8l3LYfYRQ$tFlF3IvO/KntZnYBvG0slg9+ReQ5sIneHQigTYDJrws",
			hash: krypto.Argon2Hash{
				Variant:     "argon2id",
				Version:     19,
				MemoryKiB:   47104,
				Iterations:  1,
				Parallelism: 1,
				Salt: []byte{
					0x27, 0x69, 0xb8, 0xdd, 0xf3, 0xb0, 0x5d, 0xc8,
					0x0f, 0xcf, 0xc9, 0x77, 0x2d, 0x87, 0xd8, 0x45,
				},
				Hash: []byte{
					0xb4, 0x59, 0x45, 0xdc, 0x8b, 0xce, 0xfc, 0xa9,
					0xed, 0x66, 0x76, 0x01, 0xbc, 0x6d, 0x2c, 0x96,
					0x0f, 0x7e, 0x45, 0xe4, 0x39, 0xb0, 0x89, 0xde,
					0x1d, 0x08, 0xa0, 0x4d, 0x80, 0xc9, 0xaf, 0x0b,
				},
			},
		},
		"two iterations": {
			raw: "correct horse battery staple",
			phc: "$argon2id$v=19$m=19456,t=2,p=1$i+zqqYCwB1ZjWYcY+hxc7Q$mYp0Yqh5rKaaOhwgm+5cmQcbXu/xSkAzl0cLTPfSkn4",
			hash: krypto.Argon2Hash{
				Variant:     "argon2id",
				Version:     19,
				MemoryKiB:   19456,
				Iterations:  2,
				Parallelism: 1,
				Salt: []byte{
					0x8b, 0xec, 0xea, 0xa9, 0x80, 0xb0, 0x07, 0x56,
					0x63, 0x59, 0x87, 0x18, 0xfa, 0x1c, 0x5c, 0xed,
				},
				Hash: []byte{
					0x99, 0x8a, 0x74, 0x62, 0xa8, 0x79, 0xac, 0xa6,
					0x9a, 0x3a, 0x1c, 0x20, 0x9b, 0xee, 0x5c, 0x99,
					0x07, 0x1b, 0x5e, 0xef, 0xf1, 0x4a, 0x40, 0x33,
					0x97, 0x47, 0x0b, 0x4c, 0xf7, 0xd2, 0x92, 0x7e,
				},
			},
		},
		"two lanes, non-ascii": {
			raw: "wachtwoord-ü-€-🔑",
			phc: "$argon2id$v=19$m=19456,t=2,p=2$zDSMLY2tOc/pds08OxWyFQ$lBfegbnFKm1MHhFLt5NDK/9qwrCYyon92mR+5F/T4qI",
			hash: krypto.Argon2Hash{
				Variant:     "argon2id",
				Version:     19,
				MemoryKiB:   19456,
				Iterations:  2,
				Parallelism: 2,
				Salt: []byte{
					0xcc, 0x34, 0x8c, 0x2d, 0x8d, 0xad, 0x39, 0xcf,
					0xe9, 0x76, 0xcd, 0x3c, 0x3b, 0x15, 0xb2, 0x15,
				},
				Hash: []byte{
					0x94, 0x17, 0xde, 0x81, 0xb9, 0xc5, 0x2a, 0x6d,
					0x4c, 0x1e, 0x11, 0x4b, 0xb7, 0x93, 0x43, 0x2b,
					0xff, 0x6a, 0xc2, 0xb0, 0x98, 0xca, 0x89, 0xfd,
					0xda, 0x64, 0x7e, 0xe4, 0x5f, 0xd3, 0xe2, 0xa2,
				},
			},
		},
	}
}

// invalidPHC are strings that must never be accepted as a hash. Some of them
// would make the argon2 package panic if they were used to match a password.
func invalidPHC() map[string]string {
	const salt, hash = "J2m43fOwXcgPz8l3LYfYRQ", "tFlF3IvO/KntZnYBvG0slg9+ReQ5sIneHQigTYDJrws"

	return map[string]string{
		"fail, empty":                  "",
		"fail, not phc":                "reallyStrongPassword1",
		"fail, missing part":           "$argon2id$v=19$m=47104,t=1,p=1$" + salt,
		"fail, argon2i variant":        "$argon2i$v=19$m=47104,t=1,p=1$" + salt + "$" + hash,
		"fail, bcrypt":                 "$2b$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW",
		"fail, missing version":        "$argon2id$19$m=47104,t=1,p=1$" + salt + "$" + hash,
		"fail, non-numeric version":    "$argon2id$v=x$m=47104,t=1,p=1$" + salt + "$" + hash,
		"fail, version 16":             "$argon2id$v=16$m=47104,t=1,p=1$" + salt + "$" + hash,
		"fail, non-numeric parameters": "$argon2id$v=19$m=lots,t=1,p=1$" + salt + "$" + hash,
		"fail, zero iterations":        "$argon2id$v=19$m=47104,t=0,p=1$" + salt + "$" + hash,
		"fail, zero parallelism":       "$argon2id$v=19$m=47104,t=1,p=0$" + salt + "$" + hash,
		"fail, too little memory":      "$argon2id$v=19$m=7,t=1,p=1$" + salt + "$" + hash,
		"fail, padded base64 salt":     "$argon2id$v=19$m=47104,t=1,p=1$" + salt + "==$" + hash,
		"fail, non-base64 hash":        "$argon2id$v=19$m=47104,t=1,p=1$" + salt + "$***",
		"fail, short salt":             "$argon2id$v=19$m=47104,t=1,p=1$AAAA$" + hash,
		"fail, short hash":             "$argon2id$v=19$m=47104,t=1,p=1$" + salt + "$AAAAAAAA",
		"fail, leading garbage":        "x$argon2id$v=19$m=47104,t=1,p=1$" + salt + "$" + hash,
		"fail, trailing parameters":    "$argon2id$v=19$m=47104,t=1,p=1xyz$" + salt + "$" + hash,
		"fail, extra parameter":        "$argon2id$v=19$m=47104,t=1,p=1,k=2$" + salt + "$" + hash,
		"fail, leading zero memory":    "$argon2id$v=19$m=047104,t=1,p=1$" + salt + "$" + hash,
		"fail, signed iterations":      "$argon2id$v=19$m=47104,t=+1,p=1$" + salt + "$" + hash,
		"fail, too much memory":        "$argon2id$v=19$m=1048577,t=1,p=1$" + salt + "$" + hash,
		"fail, too many iterations":    "$argon2id$v=19$m=47104,t=17,p=1$" + salt + "$" + hash,
	}
}

func Test_HashArgon2(t *testing.T) {
	t.Run("ok, hash matches only its input", func(t *testing.T) {
		h, err := krypto.HashArgon2([]byte("reallyStrongPassword1"))
		if err != nil {
			t.Fatalf("failed to hash: %v", err)
		}

		if !h.MatchBytes([]byte("reallyStrongPassword1")) {
			t.Errorf("expected input to match its hash")
		}

		if h.MatchBytes([]byte("reallyStrongPassword2")) {
			t.Errorf("did not expect other input to match")
		}

		// Hashes are stored as text, so the hash needs to survive that.
		parsed, err := krypto.ParseArgon2Hash(h.String())
		if err != nil {
			t.Fatalf("failed to parse own hash: %v", err)
		}

		if !reflect.DeepEqual(parsed, h) {
			t.Errorf("got\n%#v\nwant\n%#v", parsed, h)
		}
	})

	t.Run("ok, random salt", func(t *testing.T) {
		h1 := must(krypto.HashArgon2([]byte("reallyStrongPassword1")))
		h2 := must(krypto.HashArgon2([]byte("reallyStrongPassword1")))

		if reflect.DeepEqual(h1.Salt, h2.Salt) || reflect.DeepEqual(h1.Hash, h2.Hash) {
			t.Errorf("expected different salts and hashes for the same input")
		}
	})

	t.Run("fail, empty input", func(t *testing.T) {
		_, err := krypto.HashArgon2(nil)
		if !errors.Is(err, errorz.ErrInvalidInput) {
			t.Fatalf("expected %v, got %v (via errors.Is)", errorz.ErrInvalidInput, err)
		}
	})
}

func Test_ParseArgon2Hash(t *testing.T) {
	for name, tc := range argon2Fixtures() {
		t.Run("ok, "+name, func(t *testing.T) {
			got, err := krypto.ParseArgon2Hash(tc.phc)
			if err != nil {
				t.Fatalf("failed to parse: %v", err)
			}

			if !reflect.DeepEqual(got, tc.hash) {
				t.Errorf("got\n%#v\nwant\n%#v", got, tc.hash)
			}

			if !got.MatchBytes([]byte(tc.raw)) {
				t.Errorf("expected %q to match", tc.raw)
			}

			if got.MatchBytes([]byte(tc.raw + " ")) {
				t.Errorf("did not expect %q to match", tc.raw+" ")
			}
		})
	}

	for name, phc := range invalidPHC() {
		t.Run(name, func(t *testing.T) {
			_, err := krypto.ParseArgon2Hash(phc)
			if !errors.Is(err, errorz.ErrInvalidInput) {
				t.Errorf("expected %v, got %v (via errors.Is)", errorz.ErrInvalidInput, err)
			}
		})
	}
}

func Test_Argon2Hash_String(t *testing.T) {
	for name, tc := range argon2Fixtures() {
		t.Run("ok, "+name, func(t *testing.T) {
			if got := tc.hash.String(); got != tc.phc {
				t.Errorf("got\n%s\nwant\n%s", got, tc.phc)
			}

			txt, err := tc.hash.MarshalText()
			if err != nil {
				t.Fatalf("failed to marshal: %v", err)
			}

			if string(txt) != tc.phc {
				t.Errorf("got\n%s\nwant\n%s", txt, tc.phc)
			}
		})
	}
}

func Test_Argon2Hash_Scan(t *testing.T) {
	fixture := argon2Fixtures()["two iterations"]

	sources := map[string]any{
		"ok, string": fixture.phc,
		"ok, bytes":  []byte(fixture.phc),
	}

	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			var got krypto.Argon2Hash
			err := got.Scan(src)
			if err != nil {
				t.Fatalf("failed to scan: %v", err)
			}

			if !reflect.DeepEqual(got, fixture.hash) {
				t.Errorf("got\n%#v\nwant\n%#v", got, fixture.hash)
			}
		})
	}

	for name, phc := range invalidPHC() {
		t.Run(name, func(t *testing.T) {
			var got krypto.Argon2Hash
			err := got.Scan(phc)
			if !errors.Is(err, errorz.ErrInvalidInput) {
				t.Errorf("expected %v, got %v (via errors.Is)", errorz.ErrInvalidInput, err)
			}
		})
	}

	unsupported := map[string]any{
		"fail, nil":     nil,
		"fail, integer": 42,
	}

	for name, src := range unsupported {
		t.Run(name, func(t *testing.T) {
			var got krypto.Argon2Hash
			if err := got.Scan(src); err == nil {
				t.Fatalf("expected error, got <nil>")
			}
		})
	}
}

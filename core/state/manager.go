package state

import (
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"stakeledger/storage"
)

// Manager reads and writes the ledger's durable state. Records are RLP
// encoded and stored under keccak-hashed prefixed keys so logically distinct
// namespaces can never collide in the underlying key-value store.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func hashedKey(prefix []byte, suffix ...[]byte) []byte {
	size := len(prefix)
	for _, part := range suffix {
		size += len(part)
	}
	buf := make([]byte, 0, size)
	buf = append(buf, prefix...)
	for _, part := range suffix {
		buf = append(buf, part...)
	}
	return ethcrypto.Keccak256(buf)
}

// get decodes the record stored under key into out, reporting whether the
// key was present.
func (m *Manager) get(key []byte, out interface{}) (bool, error) {
	data, err := m.db.Get(key)
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) put(key []byte, value interface{}) error {
	data, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(key, data)
}

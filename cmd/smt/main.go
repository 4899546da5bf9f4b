// Command smt maintains a sparse merkle tree in a local leveldb or sqlite
// database.
//
//	smt --db ./smt.db init --depth 20
//	smt --db ./smt.db insert 477ab1b2...
//	smt --db ./smt.db root
//	smt --db ./smt.db valid 904db549...
//	smt --db ./smt.db --history bounded --capacity 8 prune
package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-sparsemerkle/hashers"
	"github.com/forestrie/go-sparsemerkle/smt"
	"github.com/google/uuid"
	"github.com/spf13/pflag"
)

type config struct {
	db          string
	backend     string
	tree        string
	history     string
	capacity    uint32
	hasher      string
	depth       uint8
	defaultLeaf string
	logLevel    string
}

// errRootRejected makes valid exit non zero without printing an error.
var errRootRejected = errors.New("root rejected")

func main() {
	err := run(os.Args[1:], os.Stdout)
	if errors.Is(err, errRootRejected) {
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "smt:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	var cfg config
	fs := pflag.NewFlagSet("smt", pflag.ContinueOnError)
	fs.StringVar(&cfg.db, "db", "smt.db", "database path")
	fs.StringVar(&cfg.backend, "backend", "leveldb", "storage backend: leveldb or sqlite")
	fs.StringVar(&cfg.tree, "tree", "", "tree uuid, for databases holding several trees")
	fs.StringVar(&cfg.history, "history", "latest", "root history: latest, all or bounded")
	fs.Uint32Var(&cfg.capacity, "capacity", 100, "number of roots kept by bounded history")
	fs.StringVar(&cfg.hasher, "hasher", "blake2", "hash function: blake2, keccak or sha256")
	fs.Uint8Var(&cfg.depth, "depth", 20, "tree depth, used by init")
	fs.StringVar(&cfg.defaultLeaf, "default-leaf", "", "hex default leaf, used by init (default 32 zero bytes)")
	fs.StringVar(&cfg.logLevel, "log-level", "INFO", "log level")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("missing command: init, insert, root, valid, size or prune")
	}

	logger.New(cfg.logLevel)
	defer logger.OnExit()
	log := logger.Sugar.WithServiceName("smt")

	hasher, err := newHasher(cfg.hasher)
	if err != nil {
		return err
	}
	opts, err := treeOptions(cfg)
	if err != nil {
		return err
	}
	tree := smt.NewTree[[]byte](log, smt.BytesCodec{}, opts...)

	store, err := openBackend(cfg.backend, cfg.db)
	if err != nil {
		return err
	}
	defer store.Close()

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "init":
		leaf := make([]byte, hashers.DigestBytes)
		if cfg.defaultLeaf != "" {
			if leaf, err = hex.DecodeString(cfg.defaultLeaf); err != nil {
				return fmt.Errorf("default leaf: %w", err)
			}
		}
		return store.Update(func(s smt.Store) error {
			return tree.Init(s, cfg.depth, leaf, hasher)
		})

	case "insert":
		leaves, err := hexArgs(rest, 1, -1)
		if err != nil {
			return err
		}
		return store.Update(func(s smt.Store) error {
			for _, leaf := range leaves {
				index, root, err := tree.Insert(s, hasher, leaf)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%d %x\n", index, root)
			}
			return nil
		})

	case "root":
		root, err := tree.LatestRoot(store)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%x\n", root)

	case "valid":
		roots, err := hexArgs(rest, 1, 1)
		if err != nil {
			return err
		}
		ok, err := tree.IsValidRoot(store, roots[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, ok)
		if !ok {
			return errRootRejected
		}

	case "size":
		size, err := tree.Size(store)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, size)

	case "prune":
		return store.Update(tree.PruneHistory)

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func newHasher(name string) (smt.Hasher[[]byte], error) {
	switch name {
	case "blake2":
		return hashers.Blake2{}, nil
	case "keccak":
		return hashers.NewKeccak256(), nil
	case "sha256":
		return hashers.NewSHA256(), nil
	}
	return nil, fmt.Errorf("unknown hasher %q", name)
}

func treeOptions(cfg config) ([]smt.Option, error) {
	var opts []smt.Option
	if cfg.tree != "" {
		id, err := uuid.Parse(cfg.tree)
		if err != nil {
			return nil, fmt.Errorf("tree: %w", err)
		}
		opts = append(opts, smt.WithLayout(smt.LayoutForTree(id)))
	}

	switch cfg.history {
	case "latest":
		opts = append(opts, smt.WithRootPolicy(smt.LatestOnly{}))
	case "all":
		opts = append(opts, smt.WithRootPolicy(smt.RootHistory{}))
	case "bounded":
		if cfg.capacity == 0 {
			return nil, smt.ErrInvalidCapacity
		}
		opts = append(opts, smt.WithRootPolicy(smt.BoundedRootHistory{Capacity: cfg.capacity}))
	default:
		return nil, fmt.Errorf("unknown history %q", cfg.history)
	}
	return opts, nil
}

// hexArgs decodes args, requiring at least least and, when most >= 0, at
// most most of them.
func hexArgs(args []string, least, most int) ([][]byte, error) {
	if len(args) < least || (most >= 0 && len(args) > most) {
		return nil, fmt.Errorf("wrong number of hex arguments: %d", len(args))
	}
	out := make([][]byte, 0, len(args))
	for _, a := range args {
		b, err := hex.DecodeString(a)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", a, err)
		}
		out = append(out, b)
	}
	return out, nil
}

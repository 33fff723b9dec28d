// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	ingest "github.com/blinklabs-io/genesis-ingest"
	"github.com/blinklabs-io/genesis-ingest/cbor"
	"github.com/blinklabs-io/genesis-ingest/cmd/common"
	"github.com/blinklabs-io/genesis-ingest/ledger/byron"
	"github.com/blinklabs-io/genesis-ingest/ledger/version"
	"github.com/blinklabs-io/genesis-ingest/pipeline"
	"github.com/dustin/go-humanize"
	"github.com/golang/snappy"
)

type inspectFlags struct {
	*common.GlobalFlags
	blockVersion uint
	dump         bool
	workers      int
}

func newInspectFlags() *inspectFlags {
	f := &inspectFlags{
		GlobalFlags: common.NewGlobalFlags("genesis-inspect"),
	}
	f.Flagset.UintVar(
		&f.blockVersion,
		"block-version",
		0,
		"declared block version code of the input files",
	)
	f.Flagset.BoolVar(&f.dump, "dump", false, "print the CBOR structure of each block")
	f.Flagset.IntVar(&f.workers, "workers", 2, "number of parallel decode workers")
	return f
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout io.Writer, stderr io.Writer) int {
	f := newInspectFlags()
	f.Flagset.SetOutput(stderr)
	if err := f.Parse(args); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if f.Flagset.NArg() == 0 {
		fmt.Fprintln(stderr, "You must specify at least one block file")
		return 1
	}
	if f.blockVersion > uint(^uint16(0)) {
		fmt.Fprintf(stderr, "block version %d overflows uint16\n", f.blockVersion)
		return 1
	}
	cfg, err := f.Config()
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %s\n", err)
		return 1
	}
	logger, err := common.NewLogger(cfg, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %s\n", err)
		return 1
	}
	ret := 0
	type blockFile struct {
		path string
		data []byte
	}
	var files []blockFile
	for _, path := range f.Flagset.Args() {
		data, err := readBlockFile(path, f.Hex)
		if err != nil {
			logger.Error("failed to read block file", "path", path, "error", err)
			ret = 1
			continue
		}
		files = append(files, blockFile{path: path, data: data})
	}
	p := pipeline.NewBlockPipeline(
		pipeline.WithIngestor(ingest.New(cfg.IngestOptions(logger)...)),
		pipeline.WithDecodeWorkers(f.workers),
		pipeline.WithLogger(logger),
	)
	ctx := context.Background()
	if err := p.Start(ctx); err != nil {
		fmt.Fprintf(stderr, "ERROR: %s\n", err)
		return 1
	}
	// Sequence numbers are assigned in submission order, so they index files
	rejected := false
	done := make(chan struct{})
	go func() {
		defer close(done)
		for item := range p.Results() {
			if !printItem(stdout, files[item.SequenceNumber()].path, item, f.dump) {
				rejected = true
			}
		}
	}()
	for _, file := range files {
		if _, err := p.Submit(ctx, uint16(f.blockVersion), file.data); err != nil {
			logger.Error("failed to submit block", "path", file.path, "error", err)
			ret = 1
			break
		}
	}
	if err := p.Stop(); err != nil {
		fmt.Fprintf(stderr, "ERROR: %s\n", err)
		ret = 1
	}
	<-done
	if rejected {
		ret = 1
	}
	return ret
}

// printItem prints the outcome of one block and reports whether it was accepted
func printItem(w io.Writer, path string, item *pipeline.BlockItem, dump bool) bool {
	if err := item.IngestError(); err != nil {
		fmt.Fprintf(w, "%s: rejected (%s): %s\n", path, item.Version().String(), err)
		if errPath := cbor.ErrorPath(err); len(errPath) > 0 {
			fmt.Fprintf(w, "  at: %s\n", strings.Join(errPath, " > "))
		}
		return false
	}
	printBlock(w, path, item.Version(), item.Block(), len(item.RawCbor()))
	if dump {
		if err := dumpBlock(w, item.RawCbor()); err != nil {
			fmt.Fprintf(w, "  dump failed: %s\n", err)
			return false
		}
	}
	return true
}

// readBlockFile reads raw CBOR, hex encoded CBOR or snappy compressed CBOR (.sz)
func readBlockFile(path string, isHex bool) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if filepath.Ext(path) == ".sz" {
		data, err = snappy.Decode(nil, data)
		if err != nil {
			return nil, fmt.Errorf("snappy decode: %w", err)
		}
	}
	if isHex {
		data, err = hex.DecodeString(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, fmt.Errorf("hex decode: %w", err)
		}
	}
	if len(data) == 0 {
		return nil, errors.New("empty block file")
	}
	return data, nil
}

func printBlock(
	w io.Writer,
	path string,
	blockVersion version.AnyBlockVersion,
	block ingest.Block,
	size int,
) {
	fmt.Fprintf(w, "%s: accepted (%s)\n", path, blockVersion.String())
	fmt.Fprintf(w, "  size:         %s\n", humanize.Bytes(uint64(size)))
	fmt.Fprintf(w, "  hash:         %s\n", block.Hash().String())
	genesisBlock, ok := block.(*byron.GenesisBlock)
	if !ok {
		fmt.Fprintf(w, "  slot:         %s\n", humanize.Comma(int64(block.SlotNumber())))
		return
	}
	fmt.Fprintf(w, "  magic:        %d\n", uint32(genesisBlock.ProtocolMagic()))
	fmt.Fprintf(w, "  epoch:        %d\n", uint64(genesisBlock.Epoch()))
	fmt.Fprintf(
		w,
		"  difficulty:   %s\n",
		humanize.Comma(int64(genesisBlock.BlockNumber())),
	)
	fmt.Fprintf(w, "  slot leaders: %d\n", genesisBlock.Body().Len())
}

func dumpBlock(w io.Writer, data []byte) error {
	d, err := cbor.NewStreamDecoder(data)
	if err != nil {
		return err
	}
	v, err := cbor.DecodeValue(d)
	if err != nil {
		return err
	}
	fmt.Fprint(w, cbor.DumpCborStructure(v, "  "))
	return nil
}

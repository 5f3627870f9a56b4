// Command allocbench drives a slab or pool allocator through nothing
// but its public surface (New/Alloc/Free/Reset/Destroy/Stats) and
// reports operations per second and free-list shape over HTTP.
package main

import (
	"flag"
	"log"
	"sync/atomic"
	"time"
	"unsafe"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"

	"github.com/Feralthedogg/Allocates/bulkset"
	"github.com/Feralthedogg/Allocates/pool"
	"github.com/Feralthedogg/Allocates/slab"
)

var (
	kind        = flag.String("kind", "pool", "allocator under test: slab or pool")
	port        = flag.String("port", "8089", "port to listen on")
	objectSize  = flag.Int("objsize", 64, "slab object size in bytes")
	capacity    = flag.Int("capacity", 4096, "slab capacity in cells")
	regionSize  = flag.Int("regionsize", 1<<20, "pool initial region size in bytes")
	warmRequest = flag.Int("allocsize", 64, "bytes requested per pool alloc")
	runSeconds  = flag.Int("seconds", 2, "duration of each /bench run")
)

var jsonConfig = jsoniter.ConfigCompatibleWithStandardLibrary

type benchResult struct {
	Kind       string  `json:"kind"`
	Ops        int64   `json:"ops"`
	Seconds    float64 `json:"seconds"`
	OpsPerSec  float64 `json:"ops_per_sec"`
	WideStride int     `json:"wide_store_width"`
}

func main() {
	log.SetFlags(log.Lmicroseconds | log.Lshortfile)
	flag.Parse()

	var s *slab.Slab
	var p *pool.Pool
	var err error

	switch *kind {
	case "slab":
		s, err = slab.New(*capacity, *objectSize)
	case "pool":
		p, err = pool.New(*regionSize)
	default:
		log.Fatalf("unknown -kind %q, want slab or pool", *kind)
	}
	if err != nil {
		log.Fatal(err)
	}

	handler := func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case "/bench":
			result := runBench(s, p)
			stream := jsonConfig.BorrowStream(nil)
			stream.WriteVal(result)
			ctx.SetContentType("application/json")
			ctx.Write(stream.Buffer())
			jsonConfig.ReturnStream(stream)
		case "/stats":
			stream := jsonConfig.BorrowStream(nil)
			if s != nil {
				stream.WriteVal(s.Stats())
			} else {
				stream.WriteVal(p.Stats())
			}
			ctx.SetContentType("application/json")
			ctx.Write(stream.Buffer())
			jsonConfig.ReturnStream(stream)
		default:
			ctx.SetStatusCode(404)
		}
	}

	log.Printf("allocbench: kind=%s wide_store_width=%d listening on :%s",
		*kind, bulkset.WideStoreWidth(), *port)
	if err := fasthttp.ListenAndServe(":"+*port, handler); err != nil {
		log.Fatal(err)
	}
}

func runBench(s *slab.Slab, p *pool.Pool) benchResult {
	var ops int64
	deadline := time.Now().Add(time.Duration(*runSeconds) * time.Second)

	for time.Now().Before(deadline) {
		var ptr unsafe.Pointer
		var ok bool
		if s != nil {
			ptr, ok = s.Alloc()
			if ok {
				s.Free(ptr)
			}
		} else {
			got, err := p.Alloc(uintptr(*warmRequest), 16)
			ok = err == nil
			if ok {
				p.Free(got)
			}
		}
		if ok {
			atomic.AddInt64(&ops, 1)
		}
	}

	secs := float64(*runSeconds)
	kindName := "pool"
	if s != nil {
		kindName = "slab"
	}
	return benchResult{
		Kind:       kindName,
		Ops:        ops,
		Seconds:    secs,
		OpsPerSec:  float64(ops) / secs,
		WideStride: bulkset.WideStoreWidth(),
	}
}

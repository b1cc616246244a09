// Package main generates the development CA and the server certificate
// for the console API, writing them under the "certs" directory.
//
// The console client trusts the CA with -ca certs/ca.crt.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/halolight/console/internal/certgen"
)

func main() {
	dir := flag.String("dir", "certs", "output directory")
	hosts := flag.String("hosts", strings.Join(certgen.DefaultHosts, ","), "comma-separated server names and IPs")
	force := flag.Bool("force", false, "replace an existing server certificate")
	flag.Parse()

	paths, err := run(*dir, splitHosts(*hosts), *force)
	if err != nil {
		fmt.Fprintln(os.Stderr, "certgen:", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Certificates generated into %s (CA: %s)\n", *dir, paths.CACert)
}

// run writes the certificate set into dir. With force, the server pair
// is regenerated even if present; the CA is always kept.
func run(dir string, hosts []string, force bool) (certgen.Paths, error) {
	if force {
		p := certgen.PathsIn(dir)
		for _, f := range []string{p.ServerCert, p.ServerKey} {
			if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
				return p, fmt.Errorf("remove %s: %w", f, err)
			}
		}
	}
	return certgen.EnsureDevCerts(dir, hosts)
}

func splitHosts(s string) []string {
	var hosts []string
	for _, h := range strings.Split(s, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}

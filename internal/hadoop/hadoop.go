// Package hadoop registers the optional Hadoop capabilities: the short name of
// the current security principal and the installed Hadoop version.
//
// Nothing in the module imports this package directly. Binaries opt in with a
// blank import, which makes the capabilities visible to the probe package:
//
//	import _ "enginehost/internal/hadoop"
package hadoop

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/jcmturner/gokrb5/v8/credentials"

	"enginehost/internal/capability"
	"enginehost/internal/probe"
)

func init() {
	p := New()
	capability.Register(capability.HadoopCurrentUser, capability.Provider[string](p.ShortUserName))
	capability.Register(capability.HadoopVersion, capability.Provider[string](p.Version))
}

// commonJarPrefix is the file name prefix of the hadoop-common artifact.
const commonJarPrefix = "hadoop-common-"

// Provider locates a Hadoop installation and answers identity and version
// questions about it.
type Provider struct {
	getenv   func(string) string
	lookPath func(string) (string, error)
	getuid   func() int
	osUser   func() string
}

// New returns a Provider backed by the process environment.
func New() *Provider {
	return &Provider{
		getenv:   os.Getenv,
		lookPath: exec.LookPath,
		getuid:   os.Getuid,
		osUser:   probe.CurrentUser,
	}
}

// Home returns the Hadoop installation directory. It is HADOOP_HOME when set,
// otherwise derived from the location of the hadoop launcher on PATH.
// capability.ErrNotFound is returned when neither exists.
func (p *Provider) Home() (string, error) {
	if home := p.getenv("HADOOP_HOME"); home != "" {
		return home, nil
	}
	bin, err := p.lookPath("hadoop")
	if err != nil {
		return "", fmt.Errorf("%w: HADOOP_HOME not set and hadoop not on PATH", capability.ErrNotFound)
	}
	if resolved, err := filepath.EvalSymlinks(bin); err == nil {
		bin = resolved
	}
	// <home>/bin/hadoop
	return filepath.Dir(filepath.Dir(bin)), nil
}

// ShortUserName returns the short name of the user Hadoop would act as:
// HADOOP_USER_NAME, else the first component of the Kerberos default
// principal, else the operating-system user.
func (p *Provider) ShortUserName() (string, error) {
	if _, err := p.Home(); err != nil {
		return "", err
	}
	if name := p.getenv("HADOOP_USER_NAME"); name != "" {
		return name, nil
	}
	if name, ok := p.kerberosShortName(); ok {
		return name, nil
	}
	return p.osUser(), nil
}

// kerberosShortName reads the default principal from the credential cache.
// Only FILE caches are supported.
func (p *Provider) kerberosShortName() (string, bool) {
	path, ok := p.credentialCachePath()
	if !ok {
		return "", false
	}
	cc, err := credentials.LoadCCache(path)
	if err != nil {
		return "", false
	}
	principal := cc.GetClientPrincipalName()
	if len(principal.NameString) == 0 || principal.NameString[0] == "" {
		return "", false
	}
	return principal.NameString[0], true
}

func (p *Provider) credentialCachePath() (string, bool) {
	if name := p.getenv("KRB5CCNAME"); name != "" {
		if strings.HasPrefix(name, "FILE:") {
			return strings.TrimPrefix(name, "FILE:"), true
		}
		if strings.Contains(name, ":") {
			// KEYRING:, KCM:, DIR: and friends.
			return "", false
		}
		return name, true
	}
	uid := p.getuid()
	if uid < 0 {
		return "", false
	}
	return filepath.Join(os.TempDir(), "krb5cc_"+strconv.Itoa(uid)), true
}

// Version returns the version of the installed hadoop-common artifact.
func (p *Provider) Version() (string, error) {
	home, err := p.Home()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, "share", "hadoop", "common")
	jars, err := filepath.Glob(filepath.Join(dir, commonJarPrefix+"*.jar"))
	if err != nil {
		return "", fmt.Errorf("listing %s: %w", dir, err)
	}

	var versions []string
	for _, jar := range jars {
		v := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(jar), commonJarPrefix), ".jar")
		if strings.HasSuffix(v, "-tests") || strings.HasSuffix(v, "-sources") {
			continue
		}
		versions = append(versions, v)
	}
	if len(versions) == 0 {
		return "", fmt.Errorf("%w: no %s*.jar under %s", capability.ErrNotFound, commonJarPrefix, dir)
	}
	sort.Strings(versions)
	return versions[len(versions)-1], nil
}

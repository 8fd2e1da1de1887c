// SPDX-License-Identifier: AGPL-3.0-only
package storage

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"io"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/exec"
	"github.com/testcontainers/testcontainers-go/wait"
)

const tMasterKey = "Da3ei2WFuf3tR5JXHJzSsqbpdmbYk3XkbKTFu$jcVW@ap@H5m^7Db^bq@ePMCA5x"

func TestDriversAgainstMinio(t *testing.T) {
	if testing.Short() {
		t.Skip("starts a minio container")
	}

	cred := aws.Credentials{
		AccessKeyID:     uuid.New().String(),
		SecretAccessKey: uuid.New().String(),
	}
	bucket := "test-" + uuid.New().String()

	container, host, certFile, err := runMinioContainer(t, cred.AccessKeyID, cred.SecretAccessKey, bucket)
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(t.Context()) })

	opts := func(extra ...OptFunc) []OptFunc {
		return append([]OptFunc{
			WithHost(host),
			WithRegion(RegionUSEast1),
			WithURLStyle(UrlStylePath),
			WithAdditionalCACert(certFile),
			WithPathTemplate("/#folder/#year/#month/#uuid.#fileExtension"),
		}, extra...)
	}

	drivers := []struct {
		Scenario string
		New      func(t *testing.T, extra ...OptFunc) (Driver, error)
	}{
		{"S3", func(t *testing.T, extra ...OptFunc) (Driver, error) {
			return NewS3Driver(bucket, cred, opts(extra...)...)
		}},
		{"Minio", func(t *testing.T, extra ...OptFunc) (Driver, error) {
			return NewMinioDriver(bucket, cred, opts(extra...)...)
		}},
		{"AWS", func(t *testing.T, extra ...OptFunc) (Driver, error) {
			return NewAWSDriver(t.Context(), bucket, cred, opts(extra...)...)
		}},
	}

	for _, tt := range drivers {
		t.Run(tt.Scenario, func(t *testing.T) {
			for _, sse := range []bool{false, true} {
				var extra []OptFunc
				if sse {
					extra = append(extra, WithSSECMasterKey(tMasterKey))
				}
				d, err := tt.New(t, extra...)
				require.NoError(t, err)

				data := []byte("hello " + tt.Scenario)
				path, err := d.Upload(t.Context(), &FileEntity{Bytes: data, FileName: "hello.txt", Folder: "docs"}, ACLPrivate)
				require.NoError(t, err)
				assert.Regexp(t, `^/docs/\d{4}/\d{2}/[0-9a-f-]{36}\.txt$`, path)

				got, err := d.Get(t.Context(), path)
				require.NoError(t, err)
				assert.Equal(t, data, got)

				require.NoError(t, d.Delete(t.Context(), path))

				_, err = d.Get(t.Context(), path)
				assert.ErrorIs(t, err, ErrNotFound)
			}
		})
	}

	t.Run("SSE-C Objects Need The Key", func(t *testing.T) {
		encrypted, err := NewS3Driver(bucket, cred, opts(WithSSECMasterKey(tMasterKey))...)
		require.NoError(t, err)
		plain, err := NewS3Driver(bucket, cred, opts()...)
		require.NoError(t, err)

		path, err := encrypted.Upload(t.Context(), &FileEntity{Bytes: []byte("secret"), FileName: "s.txt", Folder: "x"}, ACLPrivate)
		require.NoError(t, err)
		t.Cleanup(func() { _ = encrypted.Delete(t.Context(), path) })

		_, err = plain.Get(t.Context(), path)
		var resErr *ResponseError
		require.ErrorAs(t, err, &resErr)
		assert.Equal(t, 400, resErr.StatusCode)
	})
}

func runMinioContainer(t *testing.T, accessKeyId, secretAccessKey, bucket string) (container testcontainers.Container, hostPort, certfile string, err error) {
	certDir := t.TempDir()

	_, certfile, err = generateSelfSignedCert(certDir, []string{"localhost", "127.0.0.1"})
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to generate self-signed cert: %w", err)
	}

	req := testcontainers.ContainerRequest{
		Image:        "minio/minio:latest",
		ExposedPorts: []string{"9000/tcp"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     accessKeyId,
			"MINIO_ROOT_PASSWORD": secretAccessKey,
		},
		Cmd: []string{"server", "/data"},
		Mounts: []testcontainers.ContainerMount{
			{
				Source: testcontainers.GenericBindMountSource{
					HostPath: certDir,
				},
				Target:   "/root/.minio/certs",
				ReadOnly: true,
			},
		},
		WaitingFor: wait.ForExposedPort(),
		LogConsumerCfg: &testcontainers.LogConsumerConfig{
			Consumers: []testcontainers.LogConsumer{
				tContainerLogger{t: t},
			},
		},
	}

	container, err = testcontainers.GenericContainer(t.Context(), testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return
	}

	exitCode, out, err := container.Exec(t.Context(), []string{
		"sh", "-c", fmt.Sprintf(`
				mc alias set local https://localhost:9000 '%s' '%s';
				mc mb "local/%s";
			`, accessKeyId, secretAccessKey, bucket),
	}, exec.WithEnv([]string{"MC_INSECURE=true"}))
	if err != nil || exitCode != 0 {
		b, _ := io.ReadAll(out)
		err = fmt.Errorf("failed to create bucket: %s: %w", b, err)
		return
	}

	host, err := container.Host(t.Context())
	if err != nil {
		return
	}

	mappedPort, err := container.MappedPort(t.Context(), "9000")
	if err != nil {
		return
	}
	hostPort = net.JoinHostPort(host, mappedPort.Port())

	return
}

func generateSelfSignedCert(certDir string, hosts []string) (certBytes []byte, certFile string, err error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, "", err
	}

	serialNumber, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		return nil, "", err
	}

	tmpl := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{"s3store test"},
		},
		NotBefore:   time.Now(),
		NotAfter:    time.Now().Add(24 * time.Hour),
		KeyUsage:    x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}

	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			tmpl.IPAddresses = append(tmpl.IPAddresses, ip)
		} else {
			tmpl.DNSNames = append(tmpl.DNSNames, h)
		}
	}

	derBytes, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &privateKey.PublicKey, privateKey)
	if err != nil {
		return nil, "", err
	}

	certOut, err := os.Create(filepath.Join(certDir, "public.crt"))
	if err != nil {
		return nil, "", err
	}
	defer certOut.Close()
	var certBuf bytes.Buffer
	if err := pem.Encode(io.MultiWriter(certOut, &certBuf), &pem.Block{Type: "CERTIFICATE", Bytes: derBytes}); err != nil {
		return nil, "", err
	}

	keyOut, err := os.Create(filepath.Join(certDir, "private.key"))
	if err != nil {
		return nil, "", err
	}
	defer keyOut.Close()
	if err := pem.Encode(keyOut, &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privateKey)}); err != nil {
		return nil, "", err
	}

	return certBuf.Bytes(), certOut.Name(), nil
}

type tContainerLogger struct {
	t *testing.T
}

func (t tContainerLogger) Accept(l testcontainers.Log) {
	t.t.Helper()
	t.t.Log(string(l.Content))
}

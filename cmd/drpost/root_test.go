package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/GPTx-global/drpost/oracle/config"
	"github.com/GPTx-global/drpost/oracle/report"
	"github.com/GPTx-global/drpost/oracle/types"
)

type stubSigner struct{}

func (stubSigner) Address() string  { return "seda1stub" }
func (stubSigner) Endpoint() string { return "http://localhost:26657" }

type stubNetwork struct {
	calls  int
	posted *types.DataRequestInput
	await  types.AwaitOptions
	result *types.DataRequestResult
	err    error
	fetch  string
	height uint64
}

func (n *stubNetwork) BuildSigningConfig(opts types.SigningOptions) (types.SigningConfig, error) {
	n.calls++
	return types.SigningConfig{Mnemonic: "m", RPCEndpoint: opts.RPCEndpoint}, nil
}

func (n *stubNetwork) CreateSigner(context.Context, types.SigningConfig) (types.Signer, error) {
	n.calls++
	return stubSigner{}, nil
}

func (n *stubNetwork) PostAndAwaitDataRequest(_ context.Context, _ types.Signer, in types.DataRequestInput, opts types.AwaitOptions) (*types.DataRequestResult, error) {
	n.calls++
	n.posted = &in
	n.await = opts
	if n.err != nil {
		return nil, n.err
	}
	return n.result, nil
}

func (n *stubNetwork) BuildQueryConfig(opts types.SigningOptions) (types.SigningConfig, error) {
	return types.SigningConfig{RPCEndpoint: opts.RPCEndpoint}, nil
}

func (n *stubNetwork) GetDataResult(_ context.Context, _ types.SigningConfig, drID string) (*types.DataRequestResult, error) {
	n.fetch = drID
	return &types.DataRequestResult{DrID: drID, DrBlockHeight: n.height, Result: []byte("ok")}, nil
}

func (n *stubNetwork) DeriveAddress(types.SigningConfig) (string, error) {
	return "seda1derived", nil
}

var _ = Describe("drpost", func() {
	var (
		network *stubNetwork
		home    string
		stdout  *bytes.Buffer
		stderr  *bytes.Buffer
	)

	setenv := func(key, value string) {
		prev, had := os.LookupEnv(key)
		Expect(os.Setenv(key, value)).To(Succeed())
		DeferCleanup(func() {
			if had {
				os.Setenv(key, prev)
			} else {
				os.Unsetenv(key)
			}
		})
	}

	execute := func(args ...string) int {
		args = append(args, "--home", home, "--env-file", filepath.Join(home, ".env"))
		return run(context.Background(), args, network, stdout, stderr)
	}

	BeforeEach(func() {
		var err error
		home, err = os.MkdirTemp("", "drpost-home")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, home)
		stdout = &bytes.Buffer{}
		stderr = &bytes.Buffer{}
		network = &stubNetwork{
			result: &types.DataRequestResult{DrID: "r1", DrBlockHeight: 42, BlockHeight: 43, Result: []byte("done")},
		}

		for _, key := range []string{config.EnvProgramID, config.EnvExplorerURL, config.EnvExecInputs, config.EnvTallyInputs} {
			setenv(key, "")
			os.Unsetenv(key)
		}
	})

	Context("without ORACLE_PROGRAM_ID", func() {
		It("fails before touching the network", func() {
			Expect(execute()).To(Equal(1))
			Expect(network.calls).To(BeZero())
			Expect(stdout.Len()).To(BeZero())
			Expect(stderr.String()).To(ContainSubstring("please set ORACLE_PROGRAM_ID in your env file"))
		})
	})

	Context("with ORACLE_PROGRAM_ID set", func() {
		BeforeEach(func() {
			setenv(config.EnvProgramID, "abc123")
		})

		It("posts the default request and prints the placeholder link", func() {
			Expect(execute()).To(Equal(0))

			Expect(network.posted).NotTo(BeNil())
			Expect(network.posted.ExecProgramID).To(Equal("abc123"))
			Expect(network.posted.ExecInputs).To(Equal([]byte("46724")))
			Expect(network.posted.TallyInputs).To(BeEmpty())
			Expect(network.posted.ConsensusMethod).To(Equal(types.ConsensusNone))
			Expect(stdout.String()).To(ContainSubstring(report.ExplorerPlaceholder))
			Expect(stderr.Len()).To(BeZero())
		})

		It("builds the explorer link from SEDA_EXPLORER_URL", func() {
			setenv(config.EnvExplorerURL, "https://explorer.example")

			Expect(execute("post")).To(Equal(0))
			Expect(stdout.String()).To(ContainSubstring("https://explorer.example/data-requests/r1/42"))
		})

		It("reads the program id from the env file", func() {
			os.Unsetenv(config.EnvProgramID)
			Expect(os.WriteFile(filepath.Join(home, ".env"), []byte("ORACLE_PROGRAM_ID=from-dotenv\n"), 0644)).To(Succeed())

			Expect(execute()).To(Equal(0))
			Expect(network.posted.ExecProgramID).To(Equal("from-dotenv"))
		})

		It("turns --event-slug into a JSON input", func() {
			Expect(execute("--event-slug", "fed-decision-in-june")).To(Equal(0))
			Expect(string(network.posted.ExecInputs)).To(MatchJSON(`{"event_slug":"fed-decision-in-june"}`))
		})

		It("passes --exec-inputs and await flags through", func() {
			Expect(execute("post", "--exec-inputs", "custom", "--timeout", "0s", "--poll-interval", "2s")).To(Equal(0))
			Expect(string(network.posted.ExecInputs)).To(Equal("custom"))
			Expect(network.await.Timeout).To(BeZero())
			Expect(network.await.PollingInterval.Seconds()).To(Equal(2.0))
		})

		It("rejects a non-positive poll interval", func() {
			Expect(execute("--poll-interval", "0s")).To(Equal(1))
			Expect(network.calls).To(BeZero())
		})

		It("reports collaborator failures without printing a table", func() {
			network.err = errors.New("rpc error: account sequence mismatch")

			Expect(execute()).To(Equal(1))
			Expect(stdout.Len()).To(BeZero())
			Expect(stderr.String()).To(ContainSubstring("account sequence mismatch"))
		})
	})

	Describe("result", func() {
		It("fetches without posting and fills the height from the argument", func() {
			setenv(config.EnvExplorerURL, "https://explorer.example")

			Expect(execute("result", "r7", "99")).To(Equal(0))
			Expect(network.fetch).To(Equal("r7"))
			Expect(network.calls).To(BeZero())
			Expect(stdout.String()).To(ContainSubstring("https://explorer.example/data-requests/r7/99"))
		})

		It("prefers an explicit height over the one reported by the contract", func() {
			setenv(config.EnvExplorerURL, "https://explorer.example")
			network.height = 5

			Expect(execute("result", "r7", "99")).To(Equal(0))
			Expect(stdout.String()).To(ContainSubstring("https://explorer.example/data-requests/r7/99"))
		})

		It("falls back to the reported height without an argument", func() {
			setenv(config.EnvExplorerURL, "https://explorer.example")
			network.height = 5

			Expect(execute("result", "r7")).To(Equal(0))
			Expect(stdout.String()).To(ContainSubstring("https://explorer.example/data-requests/r7/5"))
		})

		It("rejects a malformed height", func() {
			Expect(execute("result", "r7", "tall")).To(Equal(1))
			Expect(stderr.String()).To(ContainSubstring("invalid block height"))
		})
	})

	Describe("address", func() {
		It("prints the derived address", func() {
			Expect(execute("address")).To(Equal(0))
			Expect(stdout.String()).To(Equal("seda1derived\n"))
		})
	})

	Describe("init", func() {
		It("writes a default config once", func() {
			Expect(execute("init")).To(Equal(0))
			Expect(filepath.Join(home, config.FileName)).To(BeAnExistingFile())

			stderr.Reset()
			Expect(execute("init")).To(Equal(1))
			Expect(stderr.String()).To(ContainSubstring("already exists"))
		})
	})

	Describe("preview", func() {
		It("prints the program output for an event", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/events/slug/fed" {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				_, _ = w.Write([]byte(`{"markets":[{"outcomePrices":"[\"0.25\",\"0.75\"]","groupItemTitle":"cut","closed":false}]}`))
			}))
			DeferCleanup(server.Close)

			Expect(execute("preview", "fed", "--base-url", server.URL)).To(Equal(0))
			Expect(stdout.String()).To(ContainSubstring(`{"markets":[{"yes_price":"0.25","closed":false}]}`))
			Expect(network.calls).To(BeZero())
		})
	})
})

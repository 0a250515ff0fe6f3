package integration

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stacklok/lynx-sync-agent/internal/status"
	"github.com/stacklok/lynx-sync-agent/test-integration/agent/helpers"
)

var _ = Describe("Result Sync", Label("sync"), func() {
	var (
		tempDir     string
		platform    *helpers.Platform
		agentHelper *helpers.AgentTestHelper
	)

	BeforeEach(func() {
		tempDir = newWorkDir()
		platform = helpers.NewPlatform(helpers.StartLists)
	})

	AfterEach(func() {
		if agentHelper != nil {
			Expect(agentHelper.StopAgent()).To(Succeed())
			agentHelper = nil
		}
		platform.Close()
	})

	Context("with autoSync enabled", func() {
		BeforeEach(func() {
			var err error
			agentHelper, err = helpers.NewAgentTestHelper(suiteCtx, tempDir, platform.URL(), true)
			Expect(err).NotTo(HaveOccurred())
			Expect(agentHelper.StartAgent()).To(Succeed())
		})

		It("should upload a new result file with every record tagged with its event", func() {
			By("starting a session after a successful probe")
			st := agentHelper.WaitForStatus(func(s status.SyncStatus) bool {
				return s.IsRunning && s.MonitorStatus == status.MonitorActive
			}, 10*time.Second)
			Expect(st.ConnectionStatus).To(Equal(status.ConnectionConnected))
			Expect(platform.Probes()).To(Equal(1))
			processedBefore := st.ProcessedFiles

			By("writing a result file with three athletes")
			tickStart := time.Now()
			path := agentHelper.WriteResultFile("012-1-02.lif",
				helpers.ResultFile("12", "1", "2", "100m Men", helpers.ThreeFinishers()...))

			By("waiting for the upload")
			Eventually(func() int { return len(platform.Uploads()) }, 10*time.Second, 100*time.Millisecond).
				Should(Equal(1))

			upload := platform.Uploads()[0]
			Expect(upload.CompetitionID).To(Equal("indoor-2026"))
			Expect(upload.FileName).To(Equal("012-1-02.lif"))
			Expect(upload.Results).To(HaveLen(3))
			for _, rec := range upload.Results {
				Expect(rec.EventInfo).NotTo(BeNil())
				Expect(rec.EventInfo.EventNumber).To(Equal("12"))
				Expect(rec.EventInfo.Round).To(Equal("1"))
				Expect(rec.EventInfo.Heat).To(Equal("2"))
				Expect(rec.EventInfo.EventName).To(Equal("100m Men"))
			}

			By("reporting the file as processed")
			st = agentHelper.WaitForStatus(func(s status.SyncStatus) bool {
				return s.ProcessedFiles == processedBefore+1
			}, 10*time.Second)
			Expect(st.LastSync).NotTo(BeNil())
			Expect(st.LastSync.After(tickStart) || st.LastSync.Equal(tickStart)).To(BeTrue())
			Expect(st.QueuedFiles).To(ContainElement(HaveField("Path", path)))
			for _, entry := range st.QueuedFiles {
				if entry.Path == path {
					Expect(entry.Processed).To(BeTrue())
				}
			}

			By("not uploading the file again")
			Consistently(func() int { return len(platform.Uploads()) }, 2*time.Second, 200*time.Millisecond).
				Should(Equal(1))
		})

		It("should export the start lists and the timing system configuration", func() {
			evt := filepath.Join(agentHelper.InputDir(), "Event_12_100m_Men_1_2.evt")
			Eventually(evt, 10*time.Second, 100*time.Millisecond).Should(BeAnExistingFile())
			Expect(filepath.Join(agentHelper.InputDir(), "lynx.cfg")).To(BeAnExistingFile())

			data, err := os.ReadFile(evt)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring("L-101"))
			Expect(string(data)).To(ContainSubstring("Berg"))
		})

		It("should retry a failed upload until the platform accepts it", func() {
			agentHelper.WaitForStatus(func(s status.SyncStatus) bool { return s.IsRunning }, 10*time.Second)
			platform.FailNextUploads(1)

			agentHelper.WriteResultFile("013-1-01.lif",
				helpers.ResultFile("13", "1", "1", "200m Women", helpers.ThreeFinishers()...))

			By("recording the server error")
			st := agentHelper.WaitForStatus(func(s status.SyncStatus) bool {
				return strings.Contains(s.LastError, "database unavailable")
			}, 10*time.Second)
			Expect(st.ConnectionStatus).To(Equal(status.ConnectionError))

			By("uploading on the next drain")
			Eventually(func() int { return len(platform.Uploads()) }, 10*time.Second, 100*time.Millisecond).
				Should(Equal(1))
			agentHelper.WaitForStatus(func(s status.SyncStatus) bool {
				return s.ProcessedFiles == 1 && s.ConnectionStatus == status.ConnectionConnected
			}, 10*time.Second)
		})

		It("should write status snapshots for hosts that poll", func() {
			agentHelper.WaitForStatus(func(s status.SyncStatus) bool { return s.IsRunning }, 10*time.Second)
			Eventually(func() string {
				data, _ := os.ReadFile(agentHelper.StatusFile())
				return string(data)
			}, 5*time.Second, 100*time.Millisecond).Should(ContainSubstring(`"isRunning": true`))
		})

		It("should stream status and log events", func() {
			resp, err := agentHelper.OpenEvents()
			Expect(err).NotTo(HaveOccurred())
			defer func() {
				_ = resp.Body.Close()
			}()
			Expect(resp.Header.Get("Content-Type")).To(Equal("text/event-stream"))

			lines := make(chan string, 128)
			go func() {
				defer GinkgoRecover()
				defer close(lines)
				scanner := bufio.NewScanner(resp.Body)
				for scanner.Scan() {
					lines <- scanner.Text()
				}
			}()

			Eventually(lines, 5*time.Second).Should(Receive(Equal("event: status")))

			agentHelper.WriteResultFile("014-1-01.lif",
				helpers.ResultFile("14", "1", "1", "60m Hurdles", helpers.ThreeFinishers()...))

			Eventually(func() bool {
				for {
					select {
					case line, ok := <-lines:
						if !ok {
							return false
						}
						if strings.HasPrefix(line, "data: ") && strings.Contains(line, "Result file queued") {
							return true
						}
					default:
						return false
					}
				}
			}, 10*time.Second, 100*time.Millisecond).Should(BeTrue())
		})
	})

	Context("with autoSync disabled", func() {
		BeforeEach(func() {
			var err error
			agentHelper, err = helpers.NewAgentTestHelper(suiteCtx, tempDir, platform.URL(), false)
			Expect(err).NotTo(HaveOccurred())
			Expect(agentHelper.StartAgent()).To(Succeed())
		})

		It("should wait for the host to start and stop the session", func() {
			st, err := agentHelper.GetStatus()
			Expect(err).NotTo(HaveOccurred())
			Expect(st.IsRunning).To(BeFalse())
			Expect(platform.Probes()).To(Equal(0))

			resp, err := agentHelper.StartSession()
			Expect(err).NotTo(HaveOccurred())
			_ = resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(200))
			Expect(platform.Probes()).To(Equal(1))

			resp, err = agentHelper.StopSession()
			Expect(err).NotTo(HaveOccurred())
			_ = resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(200))

			st, err = agentHelper.GetStatus()
			Expect(err).NotTo(HaveOccurred())
			Expect(st.IsRunning).To(BeFalse())
			Expect(st.ConnectionStatus).To(Equal(status.ConnectionDisconnected))
		})
	})
})

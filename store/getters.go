package store

import "github.com/podtube-cli/podtube/media"

func (st *Store) CurrentPodcast() *media.Item { return st.Snapshot().CurrentPodcast }

func (st *Store) AudioStream() *media.AudioStream { return st.Snapshot().AudioStream }

func (st *Store) VideoStream() *media.VideoStream { return st.Snapshot().VideoStream }

func (st *Store) IsPlaying() bool { return st.Snapshot().IsPlaying }

func (st *Store) Volume() float64 { return st.Snapshot().Volume }

func (st *Store) IsMuted() bool { return st.Snapshot().IsMuted }

func (st *Store) CurrentTime() float64 { return st.Snapshot().CurrentTime }

func (st *Store) Duration() float64 { return st.Snapshot().Duration }

func (st *Store) IsExpanded() bool { return st.Snapshot().IsExpanded }

func (st *Store) IsVideoMode() bool { return st.Snapshot().IsVideoMode }

func (st *Store) SleepTimerMinutes() int { return st.Snapshot().SleepTimerMinutes }

func (st *Store) SleepTimerEndEpochMs() int64 { return st.Snapshot().SleepTimerEndEpochMs }

package sqlinline

// ProgressChannel is the LISTEN/NOTIFY channel carrying job progress payloads.
const ProgressChannel = "video_job_progress"

const QInsertVideoJob = `--sql ca9bc3e9-0ba0-4b89-97d4-7a765fa64275
insert into video_jobs (id, user_id, business_name, style, voice_id, status, step)
values ($1::uuid, $2::text, $3::text, $4::text, $5::text, $6::text, $7::text)
returning created_at, updated_at;
`

const QSelectVideoJob = `--sql 276c17ab-535b-47df-adb3-c3a0419cdb19
select id::text, user_id, business_name, style, voice_id, status, step,
       error_message, video_url, video_key, size_bytes, scene_paths, audio_path,
       published_url, created_at, updated_at
from video_jobs
where id = $1::uuid;
`

const QSelectVideoJobForUser = `--sql 1e970437-6c68-4a0f-aec0-880c449b936b
select id::text, user_id, business_name, style, voice_id, status, step,
       error_message, video_url, video_key, size_bytes, scene_paths, audio_path,
       published_url, created_at, updated_at
from video_jobs
where id = $1::uuid
  and user_id = $2::text;
`

const QClaimVideoJob = `--sql 4194da67-a5d0-48d2-80f2-794bc246d1b7
with next_job as (
    select id
    from video_jobs
    where status = 'queued'
    order by created_at asc
    for update skip locked
    limit 1
)
update video_jobs
set status = 'processing',
    step = 'scripting',
    error_message = '',
    updated_at = now()
where id in (select id from next_job)
returning id::text, user_id, business_name, style, voice_id, status, step,
          error_message, video_url, video_key, size_bytes, scene_paths, audio_path,
          published_url, created_at, updated_at;
`

const QUpdateVideoJobStep = `--sql 36d8f5a0-a023-4918-8b58-66ab74a3c067
with updated as (
    update video_jobs
    set step = $2::text,
        status = 'processing',
        updated_at = now()
    where id = $1::uuid
      and status in ('pending', 'queued', 'processing')
    returning id, user_id, step, status, error_message
)
select pg_notify('video_job_progress', json_build_object(
    'job_id', id::text,
    'user_id', user_id,
    'step', step,
    'status', status,
    'error', error_message
)::text)
from updated;
`

const QMarkVideoJobFailed = `--sql 04169a3d-23e4-4ac9-a2e9-b61224d9ea8f
with updated as (
    update video_jobs
    set status = 'failed',
        step = $2::text,
        error_message = $3::text,
        updated_at = now()
    where id = $1::uuid
      and status in ('pending', 'queued', 'processing')
    returning id, user_id, step, status, error_message
)
select pg_notify('video_job_progress', json_build_object(
    'job_id', id::text,
    'user_id', user_id,
    'step', step,
    'status', status,
    'error', error_message
)::text)
from updated;
`

const QMarkVideoJobReady = `--sql e81c3f37-1bdd-41de-be95-ee64857a4d04
with updated as (
    update video_jobs
    set status = 'ready',
        step = 'ready',
        video_url = $2::text,
        video_key = $3::text,
        size_bytes = $4::bigint,
        scene_paths = $5::text[],
        audio_path = $6::text,
        error_message = '',
        updated_at = now()
    where id = $1::uuid
      and $2::text <> ''
      and status in ('pending', 'queued', 'processing')
    returning id, user_id, step, status, video_url
)
select pg_notify('video_job_progress', json_build_object(
    'job_id', id::text,
    'user_id', user_id,
    'step', step,
    'status', status,
    'video_url', video_url
)::text)
from updated;
`

// QClaimVideoJobForPublish moves a ready job to publishing so only one
// upload runs per job. A claim left behind by a crashed upload can be taken
// again after 30 minutes.
const QClaimVideoJobForPublish = `--sql 3c0e5d6a-92b4-4f7e-b1a8-6d2f4e9c7a15
update video_jobs
set status = 'publishing',
    updated_at = now()
where id = $1::uuid
  and video_key <> ''
  and (status = 'ready'
       or (status = 'publishing' and updated_at < now() - interval '30 minutes'));
`

const QReleaseVideoJobPublish = `--sql 8a4b2f61-5d7c-4e39-9f0e-1b6c3d8e2a47
update video_jobs
set status = 'ready',
    updated_at = now()
where id = $1::uuid
  and status = 'publishing';
`

const QMarkVideoJobPublished = `--sql 5f871aed-89d1-4033-9535-caef49bf5196
update video_jobs
set status = 'published',
    published_url = $2::text,
    updated_at = now()
where id = $1::uuid
  and status = 'publishing';
`

const QResetVideoJobForRetry = `--sql 1f871062-ae2d-48d6-af01-81466158348c
update video_jobs
set status = 'queued',
    step = 'scripting',
    error_message = '',
    video_url = '',
    size_bytes = 0,
    published_url = '',
    updated_at = now()
where id = $1::uuid
  and status in ('failed', 'ready')
returning id::text, user_id, business_name, style, voice_id, status, step,
          error_message, video_url, video_key, size_bytes, scene_paths, audio_path,
          published_url, created_at, updated_at;
`

const QFailStaleVideoJobs = `--sql dddf8b4f-73cb-4c55-a5bf-9f02bae93bee
update video_jobs
set status = 'failed',
    error_message = 'worker stopped before the run finished',
    updated_at = now()
where status = 'processing'
  and updated_at < now() - make_interval(secs => $1::int);
`

const QListenVideoJobProgress = `--sql 0b6f2c1e-8d4a-4f7b-9e35-2a71c4d8f6b0
listen video_job_progress;
`
